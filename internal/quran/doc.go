// Package quran loads the Uthmanic Hafs verse dataset and answers verse
// lookups by surah and ayah number.
package quran
