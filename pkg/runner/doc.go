/*
Package runner drives conversations against a ports.Dialogue.

It sanitises user input at the boundary and runs the interactive
read-eval-print loop used by the chat command.

# Key Components

  - SanitizeInput: size limit, UTF-8 validation and control character stripping.
  - Sanitize: a Dialogue middleware applying SanitizeInput to every message.
  - Runner: the line-oriented chat loop.

# Usage

	r := runner.New(engine,
		runner.WithSessionID("user-1"),
		runner.WithIO(os.Stdin, os.Stdout),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
