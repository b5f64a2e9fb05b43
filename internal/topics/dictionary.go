// Package topics maps extracted aspect keywords onto canonical topics.
package topics

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/review-intel/internal/utils"
)

// Topic is a canonical category and the aspect keywords that name it.
type Topic struct {
	ID       string   `yaml:"id"`
	Synonyms []string `yaml:"synonyms"`
}

// File is the YAML root structure.
type File struct {
	Topics []Topic `yaml:"topics"`
}

// Dictionary is an immutable topic lookup. Topics are consulted in file order,
// so a keyword listed under two topics maps to the first.
type Dictionary struct {
	topics []Topic
	index  map[string]string
	ids    []string
}

// Load reads the dictionary at path. A missing, malformed or empty file is a
// configuration error.
func Load(path string, logger *slog.Logger) (*Dictionary, error) {
	if path == "" {
		return nil, utils.ConfigError("topics.Load", "dictionary path is empty", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.ConfigError("topics.Load", "read dictionary", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, utils.ConfigError("topics.Load", "parse dictionary", err)
	}
	dict, err := New(file.Topics)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("topic dictionary loaded", slog.String("path", path), slog.Int("topics", len(dict.ids)), slog.Int("keywords", len(dict.index)))
	return dict, nil
}

// New builds a dictionary from topics in priority order. Only synonyms are
// indexed; an id matches itself only when it is listed among its synonyms.
func New(topics []Topic) (*Dictionary, error) {
	if len(topics) == 0 {
		return nil, utils.ConfigError("topics.New", "dictionary has no topics", nil)
	}
	d := &Dictionary{
		topics: make([]Topic, 0, len(topics)),
		index:  make(map[string]string),
		ids:    make([]string, 0, len(topics)),
	}
	seen := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		if topic.ID == "" {
			return nil, utils.ConfigError("topics.New", "topic without id", nil)
		}
		if _, dup := seen[topic.ID]; dup {
			return nil, utils.ConfigError("topics.New", fmt.Sprintf("duplicate topic %q", topic.ID), nil)
		}
		seen[topic.ID] = struct{}{}
		d.ids = append(d.ids, topic.ID)
		d.topics = append(d.topics, Topic{ID: topic.ID, Synonyms: append([]string(nil), topic.Synonyms...)})

		for _, kw := range topic.Synonyms {
			if kw == "" {
				continue
			}
			if _, taken := d.index[kw]; !taken {
				d.index[kw] = topic.ID
			}
		}
	}
	return d, nil
}

// Map returns the topic for keyword, matched case-sensitively. Unknown
// keywords return utils.ErrUnmappedTopic.
func (d *Dictionary) Map(keyword string) (string, error) {
	if topic, ok := d.index[keyword]; ok {
		return topic, nil
	}
	return "", fmt.Errorf("%w: %q", utils.ErrUnmappedTopic, keyword)
}

// Has reports whether id names a topic. Classifier labels are resolved with
// Has rather than Map.
func (d *Dictionary) Has(id string) bool {
	return slices.Contains(d.ids, id)
}

// IDs returns the topic ids in dictionary order.
func (d *Dictionary) IDs() []string {
	return append([]string(nil), d.ids...)
}

// Topics returns a copy of the dictionary entries.
func (d *Dictionary) Topics() []Topic {
	out := make([]Topic, len(d.topics))
	for i, t := range d.topics {
		out[i] = Topic{ID: t.ID, Synonyms: append([]string(nil), t.Synonyms...)}
	}
	return out
}
