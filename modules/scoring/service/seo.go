package service

import (
	"strconv"
	"strings"

	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	mastermodel "github.com/andreypavlenko/matchday/modules/masters/model"
	"github.com/andreypavlenko/matchday/modules/scoring/model"
)

// maxMatchedKeywords caps how many matched keywords contribute to the
// SEO score (§4.E: "at most the first 7 matched distinct keywords").
const maxMatchedKeywords = 7

// seoFieldWeights is the fixed per-field weight table (§4.E).
var seoFieldWeights = map[string]float64{
	"title":         1.5,
	"company":       1.5,
	"salary":        0.3,
	"hours":         0.3,
	"station":       0.5,
	"feature_codes": 0.8,
}

// seoScore sums base·field_weight over the first maxMatchedKeywords
// distinct keywords matched anywhere in the job's searchable fields.
func seoScore(job *jobmodel.Job, keywords []mastermodel.Keyword) float64 {
	fields := seoFields(job)

	var total float64
	matched := 0
	for _, kw := range keywords {
		if matched >= maxMatchedKeywords {
			break
		}
		needle := strings.ToLower(kw.Keyword)
		if needle == "" {
			continue
		}

		base := keywordBase(kw.SearchVolume)
		var hitWeight float64
		for field, text := range fields {
			if strings.Contains(text, needle) {
				if w := seoFieldWeights[field]; w > hitWeight {
					hitWeight = w
				}
			}
		}
		if hitWeight == 0 {
			continue
		}
		total += base * hitWeight
		matched++
	}

	return model.Clamp(total, 0, 100)
}

// keywordBase tiers a keyword's contribution by search volume (§4.E).
func keywordBase(searchVolume int) float64 {
	switch {
	case searchVolume >= 10000:
		return 15
	case searchVolume >= 5000:
		return 10
	case searchVolume >= 1000:
		return 7
	default:
		return 3
	}
}

// seoFields maps each weighted field to its lowercased searchable text.
func seoFields(job *jobmodel.Job) map[string]string {
	fields := map[string]string{
		"title":         strings.ToLower(job.Title),
		"company":       strings.ToLower(job.CompanyName),
		"salary":        strings.ToLower(salaryText(job)),
		"feature_codes": strings.ToLower(strings.Join(job.FeatureCodes, ",")),
	}
	if job.Hours != nil {
		fields["hours"] = strings.ToLower(*job.Hours)
	}
	if job.StationName != nil {
		fields["station"] = strings.ToLower(*job.StationName)
	}
	return fields
}

func salaryText(job *jobmodel.Job) string {
	var parts []string
	if job.MinSalary != nil {
		parts = append(parts, strconv.Itoa(*job.MinSalary))
	}
	if job.MaxSalary != nil {
		parts = append(parts, strconv.Itoa(*job.MaxSalary))
	}
	parts = append(parts, string(job.SalaryType))
	return strings.Join(parts, " ")
}
