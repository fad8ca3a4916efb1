package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/utils"
)

const (
	defaultLogLines = 100
	maxLogLines     = 10000
)

// LogHandlers serves the rotating log files in the log directory
type LogHandlers struct {
	logDir      string
	defaultFile string
	log         zerolog.Logger
}

// NewLogHandlers creates a new log handlers instance
func NewLogHandlers(log zerolog.Logger, logDir, defaultFile string) *LogHandlers {
	return &LogHandlers{
		logDir:      logDir,
		defaultFile: defaultFile,
		log:         log.With().Str("component", "log_handlers").Logger(),
	}
}

// LogFileInfo represents information about a log file
type LogFileInfo struct {
	Name       string    `json:"name"`
	SizeMB     float64   `json:"size_mb"`
	ModifiedAt time.Time `json:"modified_at"`
}

// LogListResponse represents the list of available log files
type LogListResponse struct {
	LogFiles []LogFileInfo `json:"log_files"`
	Total    int           `json:"total"`
}

// LogContentResponse represents log content
type LogContentResponse struct {
	File   string   `json:"file"`
	Lines  []string `json:"lines"`
	Total  int      `json:"total"`
	Status string   `json:"status"`
}

// HandleListLogs returns the log files, newest first
func (h *LogHandlers) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.logDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		h.log.Error().Err(err).Msg("Failed to list log directory")
		http.Error(w, "Failed to list logs", http.StatusInternalServerError)
		return
	}

	files := make([]LogFileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFileInfo{
			Name:       e.Name(),
			SizeMB:     float64(info.Size()) / 1024 / 1024,
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModifiedAt.After(files[j].ModifiedAt) })

	writeJSON(w, h.log, LogListResponse{LogFiles: files, Total: len(files)})
}

// HandleGetLogs returns the tail of a log file, optionally filtered by level and search term
func (h *LogHandlers) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serveTail(w, r, strings.ToUpper(q.Get("level")), q.Get("search"), defaultLogLines)
}

// HandleGetErrors returns only error lines from the tail of a log file
func (h *LogHandlers) HandleGetErrors(w http.ResponseWriter, r *http.Request) {
	h.serveTail(w, r, "ERROR", "", 500)
}

func (h *LogHandlers) serveTail(w http.ResponseWriter, r *http.Request, level, search string, defaultLines int) {
	q := r.URL.Query()

	lines, err := utils.ParseIntOr(q.Get("lines"), defaultLines)
	if err != nil || lines < 1 {
		http.Error(w, "lines must be a positive integer", http.StatusBadRequest)
		return
	}
	if lines > maxLogLines {
		lines = maxLogLines
	}

	file := q.Get("file")
	if file == "" {
		file = h.defaultFile
	}
	path, err := h.resolve(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tail, err := readTail(path, lines)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "Log file not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("file", file).Msg("Failed to read log file")
		http.Error(w, "Failed to read logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, LogContentResponse{
		File:   file,
		Lines:  filterLogs(tail, level, search),
		Total:  len(tail),
		Status: "ok",
	})
}

// resolve rejects names that could escape the log directory
func (h *LogHandlers) resolve(name string) (string, error) {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid log file name %q", name)
	}
	return filepath.Join(h.logDir, name), nil
}

// readTail returns the last n lines of the file at path
func readTail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	return ring, scanner.Err()
}

// filterLogs filters log lines by level and search term
func filterLogs(lines []string, level string, search string) []string {
	if level == "" && search == "" {
		return lines
	}

	filtered := make([]string, 0)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if level != "" && !lineMatchesLevel(line, level) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(search)) {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered
}

// lineMatchesLevel checks if a log line matches the specified level
func lineMatchesLevel(line string, level string) bool {
	// zerolog JSON format: {"level":"error",...}
	if strings.Contains(line, `"level"`) {
		return strings.Contains(strings.ToLower(line), `"level":"`+strings.ToLower(level)+`"`)
	}

	// Console format abbreviates levels: ERR, WRN, INF, DBG
	upperLine := strings.ToUpper(line)
	upperLevel := strings.ToUpper(level)
	if short, ok := consoleLevels[upperLevel]; ok && strings.Contains(upperLine, " "+short+" ") {
		return true
	}

	return strings.Contains(upperLine, upperLevel+":") ||
		strings.Contains(upperLine, "["+upperLevel+"]") ||
		strings.Contains(upperLine, " "+upperLevel+" ")
}

var consoleLevels = map[string]string{
	"ERROR": "ERR",
	"WARN":  "WRN",
	"INFO":  "INF",
	"DEBUG": "DBG",
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
