// Package monitor provides a debug web server that observes a running
// instrumentor: transaction counts, a ring of recently finished
// transactions, and resource usage of the instrumented process.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sd2k/webtxn/hooks"
	"github.com/sd2k/webtxn/instrument"
)

const defaultRecentCap = 128

// Monitor turns a running instrumentor into an observable web server.
type Monitor struct {
	portNumber int
	addr       string

	mu        sync.RWMutex
	started   uint64
	reported  uint64
	discarded uint64
	failed    uint64
	recent    []instrument.Record
	recentCap int
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{recentCap: defaultRecentCap}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithRecentCapacity sets how many finished transactions the monitor
// retains.
func (m *Monitor) WithRecentCapacity(n int) *Monitor {
	if n > 0 {
		m.recentCap = n
	}

	return m
}

// RegisterInstrumentor attaches the monitor to an instrumentor so
// that every transaction start and finish is observed.
func (m *Monitor) RegisterInstrumentor(ins *instrument.Instrumentor) {
	ins.AcceptHook(&monitorHook{m: m})
}

// A monitorHook feeds instrumentor activity into the monitor.
type monitorHook struct {
	m *Monitor
}

func (h *monitorHook) Func(ctx hooks.HookCtx) {
	rec, ok := ctx.Item.(instrument.Record)
	if !ok {
		return
	}

	switch ctx.Pos {
	case instrument.HookPosTxnStart:
		h.m.txnStarted()
	case instrument.HookPosTxnEnd:
		h.m.txnFinished(rec)
	}
}

func (m *Monitor) txnStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started++
}

func (m *Monitor) txnFinished(rec instrument.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.Claimed {
		m.reported++
	} else {
		m.discarded++
	}

	if rec.Failed {
		m.failed++
	}

	m.recent = append(m.recent, rec)
	if len(m.recent) > m.recentCap {
		m.recent = m.recent[len(m.recent)-m.recentCap:]
	}
}

// StartServer starts the monitor as a web server and returns the URL
// it serves on.
func (m *Monitor) StartServer() string {
	r := mux.NewRouter()

	r.HandleFunc("/api/summary", m.summary)
	r.HandleFunc("/api/recent", m.listRecent)
	r.HandleFunc("/api/recent/{name}", m.listRecentByName)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/inspect", m.inspect)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.addr = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr,
		"Monitoring instrumented server with %s\n", m.addr)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()

	return m.addr
}

// OpenBrowser opens the monitor URL in the local browser. Call after
// StartServer.
func (m *Monitor) OpenBrowser() error {
	return browser.OpenURL(m.addr + "/api/summary")
}

type summaryRsp struct {
	Started   uint64 `json:"started"`
	Reported  uint64 `json:"reported"`
	Discarded uint64 `json:"discarded"`
	Failed    uint64 `json:"failed"`
	InFlight  uint64 `json:"in_flight"`
}

func (m *Monitor) summary(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	rsp := summaryRsp{
		Started:   m.started,
		Reported:  m.reported,
		Discarded: m.discarded,
		Failed:    m.failed,
		InFlight:  m.started - m.reported - m.discarded,
	}
	m.mu.RUnlock()

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listRecent(w http.ResponseWriter, _ *http.Request) {
	m.writeRecent(w, "")
}

func (m *Monitor) listRecentByName(
	w http.ResponseWriter,
	r *http.Request,
) {
	m.writeRecent(w, mux.Vars(r)["name"])
}

func (m *Monitor) writeRecent(w http.ResponseWriter, name string) {
	m.mu.RLock()
	records := make([]instrument.Record, 0, len(m.recent))
	for _, rec := range m.recent {
		if name == "" || rec.Name == name {
			records = append(records, rec)
		}
	}
	m.mu.RUnlock()

	bytes, err := json.Marshal(records)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) inspect(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
