package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	once   sync.Once
	shared *log.Logger
)

// Logger returns the process-wide logger. Every line it emits is one
// JSON object, so stdout stays machine-parseable.
func Logger() *log.Logger {
	once.Do(func() {
		shared = log.New(os.Stdout, "", 0)
	})
	return shared
}

// LogRequest writes a request log entry as a JSON line.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","service":"eshop-api","msg":"log entry not serializable"}`)
		return
	}
	Logger().Println(string(data))
}
