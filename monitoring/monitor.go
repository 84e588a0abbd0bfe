// Package monitoring turns the simulator into an HTTP service and exposes
// information about the running service.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/pagesim/hooking"
	"github.com/sarchlab/pagesim/monitoring/web"
	"github.com/sarchlab/pagesim/paging"
	"github.com/sarchlab/pagesim/tracing"
)

// Monitor serves simulations over HTTP. Every request gets its own simulator,
// so requests never share run state.
type Monitor struct {
	portNumber  int
	allowOrigin string
	stats       *tracing.StepCountTracer
	hooks       []hooking.Hook

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		allowOrigin: "*",
		stats:       tracing.NewStepCountTracer(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithAllowOrigin sets the value of the Access-Control-Allow-Origin header.
func (m *Monitor) WithAllowOrigin(origin string) *Monitor {
	m.allowOrigin = origin
	return m
}

// RegisterHook adds a hook to the simulator of every request.
func (m *Monitor) RegisterHook(h hooking.Hook) {
	m.hooks = append(m.hooks, h)
}

// Stats returns the counters collected over all served runs.
func (m *Monitor) Stats() tracing.Totals {
	return m.stats.Total()
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router that serves all the endpoints.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/simulate", m.simulate).
		Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/policies", m.listPolicies).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.listStats).Methods(http.MethodGet)
	r.HandleFunc("/api/config", m.listConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/").
		Handler(http.FileServer(web.GetAssets())).
		Methods(http.MethodGet)

	r.Use(mux.CORSMethodMiddleware(r))
	r.Use(m.corsMiddleware)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving simulations with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	return url
}

// Shutdown stops a server started with StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", m.allowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type simulateReq struct {
	Algorithm       string        `json:"algorithm"`
	ReferenceString []paging.Page `json:"reference_string"`
	Frames          int           `json:"frames"`
}

type errorRsp struct {
	Error string `json:"error"`
}

func (m *Monitor) simulate(w http.ResponseWriter, r *http.Request) {
	req := simulateReq{}

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	policy, err := paging.ParsePolicy(req.Algorithm)
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorRsp{Error: "Invalid algorithm"})
		return
	}

	res, err := m.run(policy, req.ReferenceString, req.Frames)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (m *Monitor) run(
	policy paging.Policy,
	refs []paging.Page,
	numFrames int,
) (*paging.Result, error) {
	s, err := paging.MakeBuilder().
		WithPolicy(policy).
		WithNumFrames(numFrames).
		Build("Simulator")
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return s.Run(refs)
	}

	bar := m.CreateProgressBar(policy.String(), uint64(len(refs)))
	defer m.CompleteProgressBar(bar)

	s.AcceptHook(m.stats)
	s.AcceptHook(&progressHook{bar: bar})

	for _, h := range m.hooks {
		s.AcceptHook(h)
	}

	return s.Run(refs)
}

func (m *Monitor) listPolicies(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, len(paging.Policies))
	for i, p := range paging.Policies {
		names[i] = p.String()
	}

	writeJSON(w, http.StatusOK, names)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, http.StatusOK, bars)
}

type statsRsp struct {
	Total     tracing.Totals            `json:"total"`
	PerPolicy map[string]tracing.Totals `json:"per_policy"`
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	rsp := statsRsp{
		Total:     m.stats.Total(),
		PerPolicy: make(map[string]tracing.Totals),
	}

	for _, p := range paging.Policies {
		rsp.PerPolicy[p.String()] = m.stats.PolicyTotal(p)
	}

	writeJSON(w, http.StatusOK, rsp)
}

type serverConfig struct {
	PortNumber  int
	AllowOrigin string
	TLBSize     int
	Policies    []string
	NumHooks    int
}

func (m *Monitor) listConfig(w http.ResponseWriter, _ *http.Request) {
	config := &serverConfig{
		PortNumber:  m.portNumber,
		AllowOrigin: m.allowOrigin,
		TLBSize:     paging.TLBSize,
		NumHooks:    len(m.hooks),
	}

	for _, p := range paging.Policies {
		config.Policies = append(config.Policies, p.String())
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(config)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

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

	writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorRsp{Error: err.Error()})
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, http.StatusOK, prof)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
