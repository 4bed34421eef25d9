package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/models"
)

// File names inside the result directory
const (
	PopulationFile      = "init_seed_result.yml"
	OrderFile           = "init_seed_order.yml"
	ProgressFile        = "current_state.yml"
	InitialJournalFile  = "init_seed_journal.yml"
	FindingsJournalFile = "findings_journal.yml"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// docEnd terminates every journal document. A journal whose tail lacks it
// was cut short by a crash mid-append.
var docEnd = []byte("...\n")

type populationDoc struct {
	Executed int                  `yaml:"executed"`
	Seeds    map[int]*models.Seed `yaml:"seeds"`
}

// FileStore keeps campaign state as YAML files in one directory
type FileStore struct {
	dir    string
	logger *slog.Logger

	mu sync.Mutex
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, logger: logger.Default}
}

// SetLogger sets the store's logger
func (s *FileStore) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Dir returns the result directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Init(ctx context.Context) error {
	if s.dir == "" {
		return errors.New("result directory is required")
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) writeYAML(name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return WriteFileAtomic(s.path(name), data, filePerm)
}

// readYAML reports false when the file does not exist.
func (s *FileStore) readYAML(name, record string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return true, stateErrorf(record, "decode %s: %v", name, err)
	}
	return true, nil
}

func (s *FileStore) SavePopulation(ctx context.Context, pop Population) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, seeds := splitPopulation(pop)
	// Order first: a population file never exists without its order.
	if err := s.writeYAML(OrderFile, order); err != nil {
		return err
	}
	return s.writeYAML(PopulationFile, populationDoc{Executed: pop.Executed, Seeds: seeds})
}

func (s *FileStore) LoadPopulation(ctx context.Context) (Population, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc populationDoc
	ok, err := s.readYAML(PopulationFile, RecordPopulation, &doc)
	if err != nil || !ok {
		return Population{}, false, err
	}
	var order []int
	ok, err = s.readYAML(OrderFile, RecordOrder, &order)
	if err != nil {
		return Population{}, false, err
	}
	if !ok {
		return Population{}, false, stateErrorf(RecordOrder, "missing %s", OrderFile)
	}
	pop, err := assemblePopulation(order, doc.Seeds, doc.Executed)
	if err != nil {
		return Population{}, false, err
	}
	return pop, true, nil
}

func (s *FileStore) SaveProgress(ctx context.Context, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeYAML(ProgressFile, p)
}

func (s *FileStore) LoadProgress(ctx context.Context) (Progress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var node yaml.Node
	ok, err := s.readYAML(ProgressFile, RecordProgress, &node)
	if err != nil || !ok {
		return Progress{}, false, err
	}
	if err := requireKeys(&node, RecordProgress, "current_round", "current_seed_index"); err != nil {
		return Progress{}, false, err
	}
	var p Progress
	if err := node.Decode(&p); err != nil {
		return Progress{}, false, stateErrorf(RecordProgress, "decode: %v", err)
	}
	return p, true, nil
}

// requireKeys fails when a mapping document lacks any of the keys.
func requireKeys(doc *yaml.Node, record string, keys ...string) error {
	m := doc
	if m.Kind == yaml.DocumentNode && len(m.Content) == 1 {
		m = m.Content[0]
	}
	if m.Kind != yaml.MappingNode {
		return stateErrorf(record, "expected a mapping")
	}
	present := make(map[string]bool, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		present[m.Content[i].Value] = true
	}
	for _, k := range keys {
		if !present[k] {
			return stateErrorf(record, "missing field %s", k)
		}
	}
	return nil
}

func (s *FileStore) appendDoc(name string, v any) error {
	body, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", name, err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(body)
	buf.Write(docEnd)
	return appendDurable(s.path(name), buf.Bytes(), filePerm)
}

// readJournal decodes every complete document of a journal into fn.
func (s *FileStore) readJournal(name, record string, fn func(*yaml.Node) error) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !bytes.HasSuffix(data, docEnd) {
		cut := bytes.LastIndex(data, append([]byte("\n"), docEnd...))
		if cut < 0 {
			data = nil
		} else {
			data = data[:cut+1+len(docEnd)]
		}
		s.logger.Warn("Discarding incomplete journal tail", "journal", name)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return stateErrorf(record, "decode %s: %v", name, err)
		}
		if err := fn(&node); err != nil {
			return err
		}
	}
}

func (s *FileStore) AppendInitial(ctx context.Context, seed *models.Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendDoc(InitialJournalFile, seed)
}

func (s *FileStore) LoadInitial(ctx context.Context) ([]*models.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seeds []*models.Seed
	err := s.readJournal(InitialJournalFile, RecordInitial, func(n *yaml.Node) error {
		var seed models.Seed
		if err := n.Decode(&seed); err != nil {
			return stateErrorf(RecordInitial, "decode seed: %v", err)
		}
		seeds = append(seeds, &seed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeds, nil
}

func (s *FileStore) RecordFinding(ctx context.Context, kind FindingKind, seed *models.Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendDoc(FindingsJournalFile, Finding{Kind: kind, Seed: seed})
}

func (s *FileStore) loadFindingEntries() ([]Finding, error) {
	var entries []Finding
	err := s.readJournal(FindingsJournalFile, RecordFindings, func(n *yaml.Node) error {
		var raw struct {
			Kind string       `yaml:"kind"`
			Seed *models.Seed `yaml:"seed"`
		}
		if err := n.Decode(&raw); err != nil {
			return stateErrorf(RecordFindings, "decode finding: %v", err)
		}
		kind, err := ParseFindingKind(raw.Kind)
		if err != nil {
			return stateErrorf(RecordFindings, "%v", err)
		}
		entries = append(entries, Finding{Kind: kind, Seed: raw.Seed})
		return nil
	})
	return entries, err
}

func (s *FileStore) LoadFindings(ctx context.Context) (*Findings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadFindingEntries()
	if err != nil {
		return nil, err
	}
	return BuildFindings(entries), nil
}

func (s *FileStore) TruncateFindings(ctx context.Context, fromRound int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadFindingEntries()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	dropped := 0
	for _, e := range entries {
		if e.Seed != nil && e.Seed.RoundID >= fromRound {
			dropped++
			continue
		}
		body, err := yaml.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode finding: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(body)
		buf.Write(docEnd)
	}
	if dropped == 0 {
		return nil
	}
	s.logger.Info("Dropped findings of interrupted search", "from_round", fromRound, "dropped", dropped)
	return WriteFileAtomic(s.path(FindingsJournalFile), buf.Bytes(), filePerm)
}

func (s *FileStore) Close() error {
	return nil
}
