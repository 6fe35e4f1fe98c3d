package quran

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"alforqan/internal/services"
)

// MaxSurah is the number of surahs in the Quran.
const MaxSurah = 114

// Verse holds a single ayah from the Uthmanic Hafs dataset.
type Verse struct {
	Surah       int    `json:"sura_no"`
	SurahNameEN string `json:"sura_name_en"`
	SurahNameAR string `json:"sura_name_ar"`
	Ayah        int    `json:"aya_no"`
	Text        string `json:"aya_text"`
}

// Info returns the info line shown under a rendered verse, "Name (Arabic)".
func (v Verse) Info() string {
	return fmt.Sprintf("%s (%s)", v.SurahNameEN, v.SurahNameAR)
}

// Data provides verse lookups over the Uthmanic Hafs dataset.
type Data struct {
	verses map[int]map[int]Verse
	counts map[int]int
}

// Load parses the Uthmanic Hafs JSON dataset from path.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "quran", "load", fmt.Sprintf("verse dataset not found at %s", path), err)
	}

	var records []Verse
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "quran", "load", "invalid verse dataset JSON", err)
	}
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "quran", "load", "verse dataset is empty", nil)
	}

	data := &Data{
		verses: make(map[int]map[int]Verse),
		counts: make(map[int]int),
	}
	for _, record := range records {
		if record.Surah < 1 || record.Surah > MaxSurah || record.Ayah < 1 {
			return nil, services.Wrap(services.ErrConfiguration, "quran", "load",
				fmt.Sprintf("record out of range: surah %d ayah %d", record.Surah, record.Ayah), nil)
		}
		record.Text = NormalizeText(record.Text)
		surah := data.verses[record.Surah]
		if surah == nil {
			surah = make(map[int]Verse)
			data.verses[record.Surah] = surah
		}
		surah[record.Ayah] = record
		if record.Ayah > data.counts[record.Surah] {
			data.counts[record.Surah] = record.Ayah
		}
	}
	return data, nil
}

// VerseInfo retrieves a single verse, or an ErrNotFound wrapped error.
func (d *Data) VerseInfo(surah, ayah int) (Verse, error) {
	verse, ok := d.verses[surah][ayah]
	if !ok {
		return Verse{}, services.Wrap(services.ErrNotFound, "quran", "verse-info",
			fmt.Sprintf("verse %d:%d not in dataset", surah, ayah), nil)
	}
	return verse, nil
}

// Range retrieves verses startAyah..endAyah of a surah in ayah order.
func (d *Data) Range(surah, startAyah, endAyah int) ([]Verse, error) {
	if err := d.ValidateRange(surah, startAyah, endAyah); err != nil {
		return nil, err
	}
	verses := make([]Verse, 0, endAyah-startAyah+1)
	for ayah := startAyah; ayah <= endAyah; ayah++ {
		verse, err := d.VerseInfo(surah, ayah)
		if err != nil {
			return nil, err
		}
		verses = append(verses, verse)
	}
	return verses, nil
}

// AyahCount returns the number of ayahs in a surah, or zero when unknown.
func (d *Data) AyahCount(surah int) int {
	return d.counts[surah]
}

// SurahName returns the English and Arabic names of a surah.
func (d *Data) SurahName(surah int) (english, arabic string, err error) {
	ayahs, ok := d.verses[surah]
	if !ok || len(ayahs) == 0 {
		return "", "", services.Wrap(services.ErrNotFound, "quran", "surah-name",
			fmt.Sprintf("surah %d not in dataset", surah), nil)
	}
	keys := make([]int, 0, len(ayahs))
	for k := range ayahs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	first := ayahs[keys[0]]
	return first.SurahNameEN, first.SurahNameAR, nil
}

// Surahs returns the surah numbers present in the dataset, sorted.
func (d *Data) Surahs() []int {
	out := make([]int, 0, len(d.verses))
	for surah := range d.verses {
		out = append(out, surah)
	}
	sort.Ints(out)
	return out
}

// ValidateRange checks surah and ayah bounds against the dataset.
func (d *Data) ValidateRange(surah, startAyah, endAyah int) error {
	if surah < 1 || surah > MaxSurah {
		return services.Wrap(services.ErrValidation, "quran", "validate",
			fmt.Sprintf("surah %d out of range 1-%d", surah, MaxSurah), nil)
	}
	if startAyah < 1 {
		return services.Wrap(services.ErrValidation, "quran", "validate",
			fmt.Sprintf("start ayah %d must be positive", startAyah), nil)
	}
	if startAyah > endAyah {
		return services.Wrap(services.ErrValidation, "quran", "validate",
			fmt.Sprintf("start ayah %d after end ayah %d", startAyah, endAyah), nil)
	}
	count := d.AyahCount(surah)
	if count == 0 {
		return services.Wrap(services.ErrNotFound, "quran", "validate",
			fmt.Sprintf("surah %d not in dataset", surah), nil)
	}
	if endAyah > count {
		return services.Wrap(services.ErrValidation, "quran", "validate",
			fmt.Sprintf("ayah %d beyond surah %d length %d", endAyah, surah, count), nil)
	}
	return nil
}
