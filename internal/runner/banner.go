package runner

import "github.com/projectdiscovery/gologger"

const banner = `
               __                           __
  ___  ____/ /___ _ ___  _________ _ ____  / /__
 / _ \/ __  / __ '// _ \/ ___/ __ '// __ \/ //_/
/  __/ /_/ / /_/ //  __/ /  / /_/ // / / / ,<
\___/\__,_/\__, / \___/_/   \__,_//_/ /_/_/|_|
          /____/
`

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
}
