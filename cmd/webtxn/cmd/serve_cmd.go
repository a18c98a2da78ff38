package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sd2k/webtxn/apm"
	"github.com/sd2k/webtxn/instrument"
	"github.com/sd2k/webtxn/monitor"
	"github.com/sd2k/webtxn/nrapm"
	"github.com/sd2k/webtxn/recorder"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a demo server wired with the instrumentation middleware.",
	Long: `Run a demo server wired with the instrumentation middleware. ` +
		`Transactions are reported to New Relic when WEBTXN_APP_NAME and ` +
		`WEBTXN_LICENSE_KEY are set, and recorded to a local SQLite ` +
		`database otherwise.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address, defaults to WEBTXN_ADDR or :8080")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	apm.SetLogger(logger)

	backend, err := buildBackend(logger)
	if err != nil {
		return err
	}

	ins := instrument.New(backend)

	r := mux.NewRouter()
	r.Use(ins.Middleware)

	r.HandleFunc("/users", listUsers).Name("list")
	r.HandleFunc("/users/{id}", getUser).Name("get")
	r.HandleFunc("/boom", boom).Name("boom")
	r.HandleFunc("/untraced", untraced)

	if err := attachMonitor(ins); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = os.Getenv("WEBTXN_ADDR")
	}
	if addr == "" {
		addr = ":8080"
	}

	logger.Info().Str("addr", addr).Msg("serving")

	return http.ListenAndServe(addr, r)
}

func buildBackend(logger zerolog.Logger) (apm.Backend, error) {
	appName := os.Getenv("WEBTXN_APP_NAME")
	licenseKey := os.Getenv("WEBTXN_LICENSE_KEY")

	if appName != "" && licenseKey != "" {
		logger.Info().Str("app", appName).Msg("reporting to New Relic")
		return nrapm.NewBackendFromCredentials(appName, licenseKey)
	}

	w := recorder.NewSQLiteWriter(os.Getenv("WEBTXN_TRACE_DB"))
	if err := w.Init(); err != nil {
		return nil, err
	}

	logger.Info().Str("db", w.Path()).Msg("recording transactions")

	return w, nil
}

func attachMonitor(ins *instrument.Instrumentor) error {
	portStr := os.Getenv("WEBTXN_MONITOR_PORT")
	if portStr == "" {
		return nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid WEBTXN_MONITOR_PORT: %w", err)
	}

	m := monitor.NewMonitor().WithPortNumber(port)
	m.RegisterInstrumentor(ins)
	m.StartServer()

	if os.Getenv("WEBTXN_MONITOR_OPEN") == "1" {
		return m.OpenBrowser()
	}

	return nil
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	if txn, ok := instrument.FromRequest(r); ok {
		_ = txn.AddAttribute("user.count", 2)
	}

	fmt.Fprint(w, `["alice","bob"]`)
}

func getUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if txn, ok := instrument.FromRequest(r); ok {
		_ = txn.AddAttribute("user.id", id)
	}

	if id != "alice" && id != "bob" {
		http.NotFound(w, r)
		return
	}

	fmt.Fprintf(w, `{"id":%q}`, id)
}

func boom(w http.ResponseWriter, r *http.Request) {
	if _, ok := instrument.FromRequest(r); !ok {
		// Still answer; instrumentation absence never fails a request.
		fmt.Fprintln(os.Stderr, "no transaction available")
	}

	http.Error(w, "boom", http.StatusInternalServerError)
}

// untraced never claims its transaction, so the transaction is
// discarded rather than reported.
func untraced(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "ok")
}
