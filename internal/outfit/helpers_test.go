package outfit

// 测试共用的构造辅助

func fml(l FormalityLevel) *FormalityLevel { return &l }

func plainItem(id string, cat Category, label string) Item {
	return Item{ID: id, Category: cat, Label: label}
}

func styledItem(id string, cat Category, label string, formality FormalityLevel) Item {
	return Item{
		ID:       id,
		Category: cat,
		Label:    label,
		Signals:  &StyleSignals{Formality: fml(formality)},
	}
}

func pairEval(itemID string, tier ConfidenceTier, score float64) PairEvaluation {
	return PairEvaluation{
		ScanItemID: "scan-1",
		ItemID:     itemID,
		PairType:   "generic",
		Score:      score,
		Tier:       tier,
	}
}

func indexOf(items []Item) map[string]Item {
	idx := make(map[string]Item, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}

func comboIDs(combos []AssembledCombo) []string {
	ids := make([]string, 0, len(combos))
	for _, c := range combos {
		ids = append(ids, c.ID)
	}
	return ids
}

func comboOf(members ...SlotCandidate) AssembledCombo {
	slots := make(map[Slot]string, len(members))
	floor := members[0].Tier
	sum := 0.0
	for _, m := range members {
		slots[m.Slot] = m.ItemID
		sum += m.Score
		if m.Tier.Rank() < floor.Rank() {
			floor = m.Tier
		}
	}
	return AssembledCombo{
		ID:        comboID(members),
		Slots:     slots,
		Members:   members,
		TierFloor: floor,
		AvgScore:  sum / float64(len(members)),
	}
}

func member(itemID string, slot Slot, tier ConfidenceTier, score float64) SlotCandidate {
	return SlotCandidate{ItemID: itemID, Slot: slot, Tier: tier, Score: score}
}
