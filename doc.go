/*
Package fluffy provides the building blocks to create a slack bot reacting to messages.

A bot holds a registry of triggers. Each trigger has a kind, a phrase and a handler:
  - Command: fires on messages starting with the phrase followed by arguments. The arguments are
    matched against the trigger's Match expression and the captured groups are given to the handler
  - Listen: fires on messages containing the phrase anywhere (case-insensitive)
  - Exact: fires on messages equal to the phrase once trimmed

Every trigger is evaluated for every message so a single message can get many replies. Each
fired trigger is handled by its own worker (see DispatchPolicy) that checks admin restrictions,
runs the handler and delivers its reply to the original channel, a target channel or a target
user's direct channel.

Replies support in-band directives:
  - {upload}: the reply is uploaded as a file. A {comment.start:"...":comment.end} wrapper sets the
    upload's comment
  - {user.name}: replaced by the name of the user who triggered the reply

Example code:

	package main

	import (
		"context"
		"github.com/alexandre-normand/fluffy"
		"github.com/alexandre-normand/fluffy/config"
		"github.com/alexandre-normand/fluffy/handlers"
		"log"
		"regexp"
	)

	func main() {
		v, err := config.Load("~/.fluffy.yaml")
		if err != nil {
			log.Fatal(err)
		}

		bot, err := fluffy.NewBot("fluffy", v).
			WithListener("ping", handlers.Ping, fluffy.TriggerOptions{}).
			WithCommand("echo", handlers.Echo, fluffy.TriggerOptions{Match: regexp.MustCompile(`(.+)`)}).
			WithExact("whoami", handlers.WhoAmI, fluffy.TriggerOptions{TargetUser: "alice"}).
			Build()
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		if err = bot.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	}
*/
package fluffy
