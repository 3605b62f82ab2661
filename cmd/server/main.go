package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunarhle/lunar/kernel/internal/infrastructure/config"
	"github.com/lunarhle/lunar/kernel/internal/infrastructure/server"
	"github.com/lunarhle/lunar/kernel/internal/kernel"
	"github.com/lunarhle/lunar/kernel/internal/kernel/memory"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	dev := flag.Bool("dev", false, "Development mode: colored logs, debug level")
	seed := flag.Bool("seed", true, "Populate demo guest state on boot")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if *seed {
		seedGuestState(srv.Kernel())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}

// seedGuestState builds a small, realistic guest: an application with a
// private heap, the system font block mapped into it, an applet-owned
// block, and one reused-backing object shared between two processes.
func seedGuestState(k *kernel.System) {
	app := k.CreateProcess("application")
	sys := k.CreateProcess("sysmodule")

	// The system font lives in an anonymous block in the system region
	// and is mapped at its legacy linear-heap address.
	font, err := k.CreateSharedMemory(nil, 0x332000, kernel.PermRead, kernel.PermRead,
		0, memory.RegionSystem, "SharedFont")
	if err != nil {
		panic(err)
	}
	if err := font.Map(app, 0, kernel.PermRead, kernel.PermDontCare); err != nil {
		panic(err)
	}

	// An applet-owned block, heap-allocated and possibly fragmented.
	k.CreateSharedMemoryForApplet(0x1000, 0x8000, kernel.PermReadWrite, kernel.PermRead,
		"APT:SharedMem")

	// A sysmodule re-exposing part of its own heap to the application.
	if err := k.MapPrivateHeap(sys, memory.HeapBase, 0x10000, memory.RegionBase); err != nil {
		panic(err)
	}
	ipc, err := k.CreateSharedMemory(sys, 0x2000, kernel.PermReadWrite, kernel.PermRead,
		memory.HeapBase, memory.RegionBase, "srv:Buffer")
	if err != nil {
		panic(err)
	}
	if err := ipc.Map(app, memory.SharedMemoryBase, kernel.PermRead, kernel.PermReadWrite); err != nil {
		panic(err)
	}
}
