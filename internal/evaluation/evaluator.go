package evaluation

import "sort"

// Metrics describes how well a prediction set matched the ground truth.
// Breakdown lists are ascending for stable display and testing.
type Metrics struct {
	Accuracy          float64  `json:"accuracy"`
	TotalGroundTruth  int      `json:"total_ground_truth"`
	TotalPredicted    int      `json:"total_predicted"`
	CorrectlyDetected []string `json:"correctly_detected"`
	Missed            []string `json:"missed"`
	FalsePositives    []string `json:"false_positives"`
}

// Evaluate computes set-based detection accuracy. Total function: every
// input pair yields a well-formed Metrics.
//
// An empty ground truth scores 0 regardless of predictions; there is nothing
// to be accurate against, so every predicted name is a false positive.
func Evaluate(groundTruth, predicted []string) Metrics {
	truthSet := toSet(groundTruth)
	predictedSet := toSet(predicted)

	correct := make([]string, 0)
	missed := make([]string, 0)
	falsePositives := make([]string, 0)

	for name := range truthSet {
		if predictedSet[name] {
			correct = append(correct, name)
		} else {
			missed = append(missed, name)
		}
	}

	for name := range predictedSet {
		if !truthSet[name] {
			falsePositives = append(falsePositives, name)
		}
	}

	sort.Strings(correct)
	sort.Strings(missed)
	sort.Strings(falsePositives)

	accuracy := 0.0
	if len(truthSet) > 0 {
		accuracy = float64(len(correct)) / float64(len(truthSet))
	}

	return Metrics{
		Accuracy:          accuracy,
		TotalGroundTruth:  len(truthSet),
		TotalPredicted:    len(predictedSet),
		CorrectlyDetected: correct,
		Missed:            missed,
		FalsePositives:    falsePositives,
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = true
		}
	}
	return set
}
