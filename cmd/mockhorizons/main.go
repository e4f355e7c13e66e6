// Command mockhorizons serves canned Horizons-style JSON envelopes so the
// dashboard stack can run locally without hitting the real JPL API or its
// rate limits. It answers any COMMAND with a fixed report for the requested
// EPHEM_TYPE, echoing the query parameters the way the real service does.
//
// Usage:
//
//	go run ./cmd/mockhorizons -addr :9090
//	HORIZONS_BASE_URL=http://localhost:9090/api/horizons.api go run ./cmd/ephemerisd
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

const observerResult = `*******************************************************************************
Ephemeris / API_USER
Target body name: ATLAS (C/2025 N1)
Center body name: Earth (399)
*******************************************************************************
 Date__(UT)__HR:MN     R.A._____(ICRF)_____DEC    T-mag   N-mag             r        rdot             delta      deldot
*******************************************************************************
$$SOE
 2025-Aug-20 00:00     13 59 50.31 -05 18 24.2   16.32   n.a.    2.83507338234  -115.4532    1.92438820134  -227.8841
 2025-Aug-20 01:00     14 00 02.77 -05 19 01.8   16.32   n.a.    2.83214905112  -115.4498    1.91902277455  -227.8356
$$EOE
*******************************************************************************`

const elementsResult = `*******************************************************************************
Ephemeris / API_USER
Target body name: ATLAS (C/2025 N1)
Center body name: Sun (10)
*******************************************************************************
            JDTDB    Calendar Date (TDB)                 EC          QR          IN          OM           W          Tp
*******************************************************************************
$$SOE
2460907.500000000  2025-Aug-20.00  6.139E+00  1.356E+00  1.751E+02  3.222E+02  1.280E+02  2460994.4
$$EOE
*******************************************************************************`

type envelope struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/horizons.api", func(w http.ResponseWriter, r *http.Request) {
		ephemType := r.URL.Query().Get("EPHEM_TYPE")
		command := r.URL.Query().Get("COMMAND")
		logger.Info("mock query", "command", command, "ephem_type", ephemType)

		var env envelope
		switch ephemType {
		case "OBSERVER":
			env.Result = observerResult
		case "ELEMENTS":
			env.Result = elementsResult
		default:
			env.Error = fmt.Sprintf("unsupported EPHEM_TYPE: %q", ephemType)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(env) //nolint:errcheck // best-effort mock response
	})

	logger.Info("mock horizons listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
