package workout

import "encoding/json"

type fingerprintSet struct {
	C bool    `json:"c"`
	S bool    `json:"s"`
	R string `json:"r"`
}

type fingerprintExercise struct {
	N    string           `json:"n"`
	Sets []fingerprintSet `json:"sets"`
}

// Fingerprint summarizes the parts of a plan that change what the tracker must render
// structurally: exercise names plus per-set completion, skip and performed reps.
// Weights, info and planned reps are excluded. Missing performed reps count as empty.
func Fingerprint(p Plan) string {
	out := make([]fingerprintExercise, 0, len(p.Exercises))
	for _, ex := range p.Exercises {
		fe := fingerprintExercise{N: ex.Name, Sets: make([]fingerprintSet, 0, len(ex.Sets))}
		for _, s := range ex.Sets {
			fs := fingerprintSet{C: s.Completed, S: s.Skipped}
			if s.PerformedReps != nil {
				fs.R = *s.PerformedReps
			}
			fe.Sets = append(fe.Sets, fs)
		}
		out = append(out, fe)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(data)
}
