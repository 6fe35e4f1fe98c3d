package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type datasetRecord struct {
	SuraNo     int    `json:"sura_no"`
	SuraNameEN string `json:"sura_name_en"`
	SuraNameAR string `json:"sura_name_ar"`
	AyaNo      int    `json:"aya_no"`
	AyaText    string `json:"aya_text"`
}

// WriteSampleDataset writes a small verse dataset (Al-Fatihah and Al-Ikhlas)
// into dir and returns the file path.
func WriteSampleDataset(t testing.TB, dir string) string {
	t.Helper()

	fatihah := []string{
		"بِسْمِ اللَّهِ الرَّحْمَنِ الرَّحِيمِ",
		"الْحَمْدُ لِلَّهِ رَبِّ الْعَالَمِينَ",
		"الرَّحْمَنِ الرَّحِيمِ",
		"مَالِكِ يَوْمِ الدِّينِ",
		"إِيَّاكَ نَعْبُدُ وَإِيَّاكَ نَسْتَعِينُ",
		"اهْدِنَا الصِّرَاطَ الْمُسْتَقِيمَ",
		"صِرَاطَ الَّذِينَ أَنْعَمْتَ عَلَيْهِمْ غَيْرِ الْمَغْضُوبِ عَلَيْهِمْ وَلَا الضَّالِّينَ",
	}
	ikhlas := []string{
		"قُلْ هُوَ اللَّهُ أَحَدٌ",
		"اللَّهُ الصَّمَدُ",
		"لَمْ يَلِدْ وَلَمْ يُولَدْ",
		"وَلَمْ يَكُنْ لَهُ كُفُوًا أَحَدٌ",
	}

	var records []datasetRecord
	for i, text := range fatihah {
		records = append(records, datasetRecord{
			SuraNo:     1,
			SuraNameEN: "Al-Fatihah",
			SuraNameAR: "الفاتحة",
			AyaNo:      i + 1,
			AyaText:    text,
		})
	}
	for i, text := range ikhlas {
		records = append(records, datasetRecord{
			SuraNo:     112,
			SuraNameEN: "Al-Ikhlas",
			SuraNameAR: "الإخلاص",
			AyaNo:      i + 1,
			AyaText:    text,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal dataset: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir dataset dir: %v", err)
	}
	path := filepath.Join(dir, "quran.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}
