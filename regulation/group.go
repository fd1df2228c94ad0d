package regulation

import "github.com/warp/curbside/generic"

// GroupRules consolidates raw records into one rule per distinct
// (code, season start, season end, max stay) key.
//
// Groups are emitted in first-occurrence order. Each weekday's interval list
// is the concatenation, in input order, of what the group's records
// contribute; overlaps are kept. Description, special days, restriction type
// and permit number are taken from the last record of the group.
func GroupRules(records []RawRuleRecord) ([]ConsolidatedRule, error) {
	index := make(map[groupKey]int)
	var rules []ConsolidatedRule

	for _, rec := range records {
		days, err := BuildDayIntervals(rec)
		if err != nil {
			return nil, err
		}

		key := rec.groupKey()
		i, seen := index[key]
		if !seen {
			i = len(rules)
			index[key] = i
			rules = append(rules, ConsolidatedRule{
				Code:           rec.Code,
				SeasonStart:    rec.SeasonStart,
				SeasonEnd:      rec.SeasonEnd,
				MaxStayMinutes: rec.MaxStayMinutes,
				Agenda:         generic.NewAgenda(),
			})
		}

		rule := &rules[i]
		rule.Agenda.Merge(days)

		// Take-last reduction for descriptive fields.
		rule.Description = rec.Description
		rule.SpecialDays = rec.SpecialDays
		rule.RestrictType = rec.RestrictType
		rule.PermitNo = rec.PermitNo
	}

	return rules, nil
}
