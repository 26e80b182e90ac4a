// Package commands defines the chessgui CLI.
//
// Commands
//
//   - play     Open the board window (the default)
//   - hint     Play in the terminal with engine suggestions before each move
//   - assets   Download the piece images into the images directory
//   - render   Write a PNG of a FEN position
//
// The root command resolves the configuration and builds the logger before
// any subcommand runs. Subcommands that talk to an engine start it
// themselves and close it on the way out.
package commands
