/*
Package runner drives a composition engine from a stream of key events.

It acts as the bridge between the engine and a terminal or a host process.
Events come from a pluggable IOHandler, which also presents every result.

# Key Components

  - Runner: the loop. While candidates are shown, a digit that the table does
    not accept highlights a candidate instead of being rejected.
  - TextHandler: one key per rune, coloured action lines, for interactive use.
  - JSONHandler: one JSON request per line in, one JSON result per line out,
    for editors and scripts.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)),
	)
	committed, err := r.Run(ctx, engine)
*/
package runner
