package reports

import "strconv"

const areaKeys = 10

// averageAnswers divides every key's sum by the total row count. A row that
// lacks a key counts as zero for it, so sparse answer sets pull the mean down.
func averageAnswers(rows []EvaluationRow) map[string]float64 {
	out := map[string]float64{}
	if len(rows) == 0 {
		return out
	}
	total := float64(len(rows))
	for _, row := range rows {
		for key, value := range row.Answers {
			out[key] += value / total
		}
	}
	return out
}

func collectComments(rows []EvaluationRow) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Comment)
	}
	return out
}

type keyStats struct {
	sum   [areaKeys]float64
	count [areaKeys]int
}

func (k *keyStats) add(answers map[string]float64) {
	for i := 0; i < areaKeys; i++ {
		if value, ok := answers[strconv.Itoa(i+1)]; ok {
			k.sum[i] += value
			k.count[i]++
		}
	}
}

func (k *keyStats) fill(row *AreaRow) {
	slots := [areaKeys]**float64{&row.P1, &row.P2, &row.P3, &row.P4, &row.P5, &row.P6, &row.P7, &row.P8, &row.P9, &row.P10}
	for i, slot := range slots {
		if k.count[i] == 0 {
			continue
		}
		mean := k.sum[i] / float64(k.count[i])
		*slot = &mean
	}
}

// aggregateAreas builds one row per department in the given order, then a
// trailing no-department row when unassigned users were evaluated. Samples
// for unknown departments are ignored.
func aggregateAreas(departments []DepartmentRef, samples []AreaSample) []AreaRow {
	stats := make(map[string]*keyStats, len(departments))
	for _, dept := range departments {
		stats[dept.ID] = &keyStats{}
	}
	var unassigned *keyStats
	for _, sample := range samples {
		if sample.DepartmentID == nil {
			if unassigned == nil {
				unassigned = &keyStats{}
			}
			unassigned.add(sample.Answers)
			continue
		}
		if group, ok := stats[*sample.DepartmentID]; ok {
			group.add(sample.Answers)
		}
	}

	rows := make([]AreaRow, 0, len(departments)+1)
	for _, dept := range departments {
		id, name := dept.ID, dept.Name
		row := AreaRow{DepartmentID: &id, DepartmentName: &name}
		stats[dept.ID].fill(&row)
		rows = append(rows, row)
	}
	if unassigned != nil {
		row := AreaRow{}
		unassigned.fill(&row)
		rows = append(rows, row)
	}
	return rows
}
