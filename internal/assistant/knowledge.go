package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// KnowledgeBase serves the static per-language knowledge text, re-reading a
// file once its cached copy is older than the TTL.
type KnowledgeBase struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]knowledgeEntry
}

type knowledgeEntry struct {
	text     string
	loadedAt time.Time
}

func NewKnowledgeBase(dir string, ttl time.Duration) *KnowledgeBase {
	return &KnowledgeBase{
		dir:     dir,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]knowledgeEntry),
	}
}

func (k *KnowledgeBase) path(lang string) string {
	return filepath.Join(k.dir, "knowledge_base_"+lang+".txt")
}

// Text returns the knowledge base for lang.
func (k *KnowledgeBase) Text(lang string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if e, ok := k.entries[lang]; ok {
		if k.ttl <= 0 || k.now().Sub(e.loadedAt) < k.ttl {
			return e.text, nil
		}
		delete(k.entries, lang)
	}
	b, err := os.ReadFile(k.path(lang))
	if err != nil {
		return "", fmt.Errorf("read knowledge base for %q: %w", lang, err)
	}
	text := string(b)
	k.entries[lang] = knowledgeEntry{text: text, loadedAt: k.now()}
	return text, nil
}
