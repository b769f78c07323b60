package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/NikitaCartes-forks/bonk/internal/actionlog"
)

// ErrStop ends a scan early without error.
var ErrStop = errors.New("stop scan")

// Filter selects actions while scanning. Zero fields match everything.
type Filter struct {
	Action string
	World  string
	// Player matches the source profile id or name.
	Player string
	Since  time.Time
	Until  time.Time
}

func (f Filter) Match(a actionlog.Action) bool {
	if f.Action != "" && a.Identifier != f.Action {
		return false
	}
	if f.World != "" && a.World != f.World {
		return false
	}
	if f.Player != "" {
		p := a.SourceProfile
		if p == nil || (p.ID != f.Player && !strings.EqualFold(p.Name, f.Player)) {
			return false
		}
	}
	if !f.Since.IsZero() && a.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && a.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// ActionFiles lists the action log files in dir, oldest first.
func ActionFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, actionsPrefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, filepath.Join(dir, name))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ScanActions calls fn for every action in dir matching f, in write order.
// Returning ErrStop from fn ends the scan.
func ScanActions(dir string, f Filter, fn func(actionlog.Action) error) error {
	files, err := ActionFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := scanFile(path, f, fn); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func scanFile(path string, f Filter, fn func(actionlog.Action) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	dec, err := zstd.NewReader(fh)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var a actionlog.Action
		if err := json.Unmarshal(sc.Bytes(), &a); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if !f.Match(a) {
			continue
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	// The current hour's frame is still open while the server runs.
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return nil
}

// ReadActions returns every action in dir matching f.
func ReadActions(dir string, f Filter) ([]actionlog.Action, error) {
	var out []actionlog.Action
	err := ScanActions(dir, f, func(a actionlog.Action) error {
		out = append(out, a)
		return nil
	})
	return out, err
}
