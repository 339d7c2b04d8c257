// Package eftlog provides parsing and monitoring of Escape from Tarkov log files.
//
// This package allows you to:
//   - Follow the logs of the running game and receive typed events
//   - Replay a finished session folder
//   - Build tools like raid timers, flea market notifiers, quest trackers, etc.
//
// # Basic Usage
//
// To monitor the game in real-time:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	events, err := eftlog.Watch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for ev := range events {
//	    switch d := ev.Data.(type) {
//	    case event.RaidLoadedData:
//	        fmt.Printf("Raid on %s (%s)\n", d.Map, d.RaidType)
//	    case event.FleaSoldData:
//	        fmt.Printf("%s bought %d x %s\n", d.Buyer, d.SoldItemCount, d.SoldItemID)
//	    case event.ExceptionData:
//	        log.Printf("error: %s", d.Message)
//	    }
//	}
//
// The watcher waits for the game process, so it can be started before the
// game. Errors never stop it; they arrive on the same channel as Exception
// events, in order with everything else.
//
// To replay a session folder:
//
//	for ev, err := range eftlog.ParseDir(ctx, sessionDir) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(ev.Type)
//	}
//
// # Platform Support
//
// The game runs on Windows. The logs directory is derived from the game
// executable's location; set it explicitly with WithLogsDir or the
// EFTLOG_LOGSDIR environment variable to replay logs on other systems.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Battlestate Games.
package eftlog
