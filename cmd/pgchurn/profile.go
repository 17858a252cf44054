package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/process"
)

// profileCPUAndMem samples the server backend serving user on dbName once a
// second and appends cpu,rss,vms,swap lines to file until ctx is done.
func profileCPUAndMem(ctx context.Context, file, user, dbName string) {
	f, err := os.Create(file)
	if err != nil {
		log.Printf("could not create profile file %s: %v", file, err)
		return
	}
	defer f.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var proc *process.Process
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if proc == nil {
			proc = findBackend(user, dbName)
			continue
		}
		cpu, err := proc.CPUPercent()
		if err != nil {
			proc = nil
			continue
		}
		mem, err := proc.MemoryInfo()
		if err != nil {
			proc = nil
			continue
		}

		fmt.Fprintf(f, "%f,%d,%d,%d\n", cpu, mem.RSS, mem.VMS, mem.Swap)
	}
}

// findBackend returns the local postgres backend process whose title names
// user and dbName, or nil.
func findBackend(user, dbName string) *process.Process {
	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	for _, p := range procs {
		cmd, _ := p.Cmdline()
		if isBackendTitle(cmd, user, dbName) {
			return p
		}
	}
	return nil
}

// isBackendTitle matches titles like "postgres: loader bench 10.0.0.2(5432) idle".
func isBackendTitle(cmdline, user, dbName string) bool {
	fields := strings.Fields(cmdline)
	return len(fields) >= 3 && fields[0] == "postgres:" && fields[1] == user && fields[2] == dbName
}
