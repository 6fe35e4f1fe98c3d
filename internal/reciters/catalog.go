package reciters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"alforqan/internal/services"
)

// Reciter describes one entry from the EveryAyah recitation catalog.
type Reciter struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Subfolder string `json:"subfolder"`
	Bitrate   string `json:"bitrate"`
}

// String renders the reciter the way the catalog UI shows it.
func (r Reciter) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Bitrate)
}

// Catalog holds the parsed recitation catalog plus per-surah ayah counts.
type Catalog struct {
	reciters   map[int]Reciter
	ayahCounts []int
}

type catalogRecord struct {
	Subfolder string `json:"subfolder"`
	Name      string `json:"name"`
	Bitrate   string `json:"bitrate"`
}

// ParseCatalog decodes the recitations.js payload: a JSON object keyed by
// numeric reciter ids, with an extra ayahCount array.
func ParseCatalog(data []byte) (*Catalog, error) {
	trimmed := strings.TrimSpace(string(data))
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "reciters", "parse-catalog", "invalid catalog JSON", err)
	}

	catalog := &Catalog{reciters: make(map[int]Reciter)}
	for key, value := range raw {
		if key == "ayahCount" {
			if err := json.Unmarshal(value, &catalog.ayahCounts); err != nil {
				return nil, services.Wrap(services.ErrExternalTool, "reciters", "parse-catalog", "invalid ayahCount array", err)
			}
			continue
		}
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		var record catalogRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "reciters", "parse-catalog",
				fmt.Sprintf("invalid record for reciter %d", id), err)
		}
		catalog.reciters[id] = Reciter{
			ID:        id,
			Name:      record.Name,
			Subfolder: record.Subfolder,
			Bitrate:   record.Bitrate,
		}
	}

	if len(catalog.reciters) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "reciters", "parse-catalog", "catalog contains no reciters", nil)
	}
	return catalog, nil
}

// Get returns the reciter with the given id.
func (c *Catalog) Get(id int) (Reciter, error) {
	reciter, ok := c.reciters[id]
	if !ok {
		return Reciter{}, services.Wrap(services.ErrNotFound, "reciters", "lookup",
			fmt.Sprintf("reciter %d not in catalog", id), nil)
	}
	return reciter, nil
}

// List returns all reciters sorted by name.
func (c *Catalog) List() []Reciter {
	out := make([]Reciter, 0, len(c.reciters))
	for _, reciter := range c.reciters {
		out = append(out, reciter)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Search returns reciters whose name contains term, case-insensitively.
func (c *Catalog) Search(term string) []Reciter {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return c.List()
	}
	var out []Reciter
	for _, reciter := range c.List() {
		if strings.Contains(strings.ToLower(reciter.Name), needle) {
			out = append(out, reciter)
		}
	}
	return out
}

// ByBitrate filters reciters by audio quality label.
func (c *Catalog) ByBitrate(bitrate string) []Reciter {
	needle := strings.ToLower(strings.TrimSpace(bitrate))
	var out []Reciter
	for _, reciter := range c.List() {
		if strings.ToLower(reciter.Bitrate) == needle {
			out = append(out, reciter)
		}
	}
	return out
}

// AyahCount returns the ayah count for a surah per the catalog, or zero.
func (c *Catalog) AyahCount(surah int) int {
	if surah < 1 || surah > len(c.ayahCounts) {
		return 0
	}
	return c.ayahCounts[surah-1]
}

// ValidateAyah checks a surah/ayah pair against the catalog ayah counts.
func (c *Catalog) ValidateAyah(surah, ayah int) error {
	if surah < 1 || surah > 114 {
		return services.Wrap(services.ErrValidation, "reciters", "validate",
			fmt.Sprintf("surah %d out of range 1-114", surah), nil)
	}
	max := c.AyahCount(surah)
	if max == 0 {
		// Catalog without counts cannot reject the ayah.
		return nil
	}
	if ayah < 1 || ayah > max {
		return services.Wrap(services.ErrValidation, "reciters", "validate",
			fmt.Sprintf("ayah %d out of range 1-%d for surah %d", ayah, max, surah), nil)
	}
	return nil
}

// Len reports the number of reciters in the catalog.
func (c *Catalog) Len() int {
	return len(c.reciters)
}
