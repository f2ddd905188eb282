package main

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// startTime of the server
var startTime = time.Now()

// ServerStatus represents status of the server and its classifier
type ServerStatus struct {
	Info         string  `json:"info"`            // server info
	Uptime       string  `json:"uptime"`          // server uptime
	State        string  `json:"state"`           // model provider state
	Error        string  `json:"error,omitempty"` // model acquisition error
	Goroutines   int     `json:"goroutines"`      // number of goroutines
	RSS          uint64  `json:"rss"`             // resident memory of the server
	CPUPercent   float64 `json:"cpu_percent"`     // CPU usage of the server
	MemTotal     uint64  `json:"mem_total"`       // host memory
	MemUsedRatio float64 `json:"mem_used_percent"`
}

// helper function to collect server status
func serverStatus(provider *ModelProvider) ServerStatus {
	status := ServerStatus{
		Info:       info(),
		Uptime:     time.Since(startTime).Round(time.Second).String(),
		State:      provider.State().String(),
		Goroutines: runtime.NumGoroutine(),
	}
	if err := provider.Err(); err != nil {
		status.Error = err.Error()
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if minfo, err := proc.MemoryInfo(); err == nil {
			status.RSS = minfo.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			status.CPUPercent = cpu
		}
	} else if Config.Verbose > 0 {
		log.Println("unable to get process info", err)
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		status.MemTotal = vmem.Total
		status.MemUsedRatio = vmem.UsedPercent
	}
	return status
}
