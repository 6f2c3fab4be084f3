package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/tckz/tempo-downloads/internal/log"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optLogLevel = flag.String("log-level", "info", "info|warn|error")
	optEndpoint = flag.String("endpoint", "http://localhost:8080", "base URL of downloads-server")
	optSecret   = flag.String("secret", "", "admin secret (default: ADMIN_SECRET)")
	optSet      = flag.Int64("set", -1, "overwrite the real count when >= 0")
	optTimeout  = flag.Duration("timeout", 10*time.Second, "request timeout")
)

func init() {
	godotenv.Load()

	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))
}

type stats struct {
	Real      int64  `json:"real"`
	Fake      int64  `json:"fake"`
	Display   int64  `json:"display"`
	Timestamp string `json:"timestamp"`
}

func main() {
	logger.Debugf("ver=%s, args=%s", version, os.Args)

	secret := *optSecret
	if secret == "" {
		secret = os.Getenv("ADMIN_SECRET")
	}
	if secret == "" {
		logger.Fatalf("*** --secret or ADMIN_SECRET must be specified.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *optTimeout)
	defer cancel()

	base := strings.TrimRight(*optEndpoint, "/")
	cl := &http.Client{}

	if *optSet >= 0 {
		body, _ := json.Marshal(map[string]any{"count": *optSet, "secret": secret})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/downloads/set", bytes.NewReader(body))
		if err != nil {
			logger.Fatalf("*** http.NewRequest: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if _, err := call(cl, req); err != nil {
			logger.Fatalf("*** set: %v", err)
		}
		logger.Infof("real count set to %s", humanize.Comma(*optSet))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/admin/stats?secret="+url.QueryEscape(secret), nil)
	if err != nil {
		logger.Fatalf("*** http.NewRequest: %v", err)
	}
	b, err := call(cl, req)
	if err != nil {
		logger.Fatalf("*** stats: %v", err)
	}

	var st stats
	if err := json.Unmarshal(b, &st); err != nil {
		logger.Fatalf("*** json.Unmarshal: %v", err)
	}

	at, _ := time.Parse(time.RFC3339Nano, st.Timestamp)
	fmt.Fprintf(os.Stdout, "real:    %s\n", humanize.Comma(st.Real))
	fmt.Fprintf(os.Stdout, "fake:    %s\n", humanize.Comma(st.Fake))
	fmt.Fprintf(os.Stdout, "display: %s\n", humanize.Comma(st.Display))
	fmt.Fprintf(os.Stdout, "at:      %s (%s)\n", st.Timestamp, humanize.Time(at))
}

func call(cl *http.Client, req *http.Request) ([]byte, error) {
	res, err := cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status=%d, body=%s", res.StatusCode, bytes.TrimSpace(b))
	}
	return b, nil
}
