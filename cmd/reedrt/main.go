// Reed runtime CLI - exercises the runtime from a manifest and reports
// machine statistics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/reedlang/reed/lib/telemetry"
	"github.com/reedlang/reed/manifest"
	"github.com/reedlang/reed/rt"
	"github.com/reedlang/reed/rt/wire"
)

var log = commonlog.GetLogger("reedrt")

func main() {
	dir := flag.String("manifest", "", "Directory containing reed.toml (defaults built-in if empty)")
	peers := flag.Int("peers", 2, "Peer machines to spawn")
	messages := flag.Int("messages", 16, "Messages each peer sends back")
	snapshot := flag.String("snapshot", "", "Write a CBOR snapshot of the final value to this file")
	verbose := flag.Int("verbosity", 1, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: reedrt [options]\n\n")
		fmt.Fprintf(os.Stderr, "Spins up a root machine, spawns peers that message it, and prints statistics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	commonlog.Configure(*verbose, nil)

	cfg := manifest.Default()
	if *dir != "" {
		loaded, err := manifest.Load(*dir)
		if err != nil {
			log.Criticalf("%v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var store *telemetry.Store
	if cfg.Telemetry.Enabled {
		s, err := telemetry.Open(cfg.TelemetryPath())
		if err != nil {
			log.Criticalf("opening telemetry store: %v", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	root := rt.NewSized(cfg.Runtime.StackSize, cfg.Runtime.HeapSize,
		cfg.Runtime.MaxPeers, cfg.Runtime.InboxCapacity)
	log.Infof("root machine %s: stack=%d heap=%d", root.ID, cfg.Runtime.StackSize, cfg.Runtime.HeapSize)

	count := *messages
	for i := 0; i < *peers; i++ {
		root.Spawn(func(peer *rt.Machine, arg rt.Value) {
			base := arg.Int()
			for j := 0; j < count; j++ {
				peer.Ret = peer.MkCon(300, rt.FromInt(base+int64(j)), peer.MkStr("pong"))
				if !peer.Send(root, peer.Ret) {
					return
				}
			}
		}, rt.FromInt(int64(i*count)))
	}

	for i := 0; i < *peers*count; i++ {
		msg := root.Recv(nil)
		// Ret is a collector root; late sends may still trigger
		// collections on the root machine.
		root.Ret = msg.Value()
		log.Debugf("message %d from %s", i, msg.Sender().ID)
		msg.Free()
	}
	log.Infof("received %d messages", *peers*count)

	if *snapshot != "" && !root.Ret.IsNull() {
		blob, err := wire.Marshal(root.Ret)
		if err != nil {
			log.Errorf("snapshot: %v", err)
		} else if err := os.WriteFile(*snapshot, blob, 0o644); err != nil {
			log.Errorf("snapshot: %v", err)
		} else {
			log.Infof("snapshot written to %s (%d bytes)", *snapshot, len(blob))
		}
	}

	stats := root.Terminate()
	log.Infof("root: %d allocations, %d bytes, %d collections",
		stats.Allocations, stats.AllocatedBytes, stats.Collections)

	if store != nil {
		if _, err := store.RecordRun(root.ID, stats); err != nil {
			log.Errorf("recording run: %v", err)
		}
	}
}
