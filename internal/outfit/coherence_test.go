package outfit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

func newTestFilter() *CoherenceFilter {
	return NewCoherenceFilter(NewKeywordClassifier(DefaultKeywordRules()), logger.Nop{})
}

func TestFormalityBand(t *testing.T) {
	t.Parallel()

	require.Nil(t, FormalityBand(nil))

	cases := []struct {
		level FormalityLevel
		want  int
	}{
		{FormalityCasual, BandCasual},
		{FormalityAthleisure, BandCasual},
		{FormalitySmartCasual, BandSmartCasual},
		{FormalityFormal, BandFormal},
		{FormalityEvening, BandFormal},
	}
	for _, tc := range cases {
		got := FormalityBand(fml(tc.level))
		require.NotNil(t, got)
		require.Equal(t, tc.want, *got)
	}

	// 枚举外的值当作未知
	require.Nil(t, FormalityBand(fml(FormalityLevel(9))))
}

func TestKeywordClassifier(t *testing.T) {
	t.Parallel()

	c := NewKeywordClassifier(DefaultKeywordRules())

	require.True(t, c.IsHeelShoe(plainItem("x", CategoryShoes, "Black Stiletto Pumps")))
	require.True(t, c.IsFormalShoe(plainItem("x", CategoryShoes, "black stiletto pumps"))) // 高跟是正装的子集
	require.True(t, c.IsFormalShoe(plainItem("x", CategoryShoes, "leather oxford")))
	require.False(t, c.IsHeelShoe(plainItem("x", CategoryShoes, "leather oxford")))
	require.True(t, c.IsAthleticShoe(plainItem("x", CategoryShoes, "white running sneakers")))
	require.True(t, c.IsSportyGarment(plainItem("x", CategoryBottoms, "grey jogger pants")))
	require.False(t, c.IsSportyGarment(plainItem("x", CategoryBottoms, "tailored trousers")))

	// 关键词也看 notes
	vibe := plainItem("x", CategoryTops, "plain tee")
	vibe.Notes = "streetwear staple"
	require.True(t, c.HasExceptionVibe(vibe))
	require.True(t, c.HasExceptionVibe(plainItem("x", CategoryTops, "街头风外套")))
}

func TestCoherenceSportyHeelsAlwaysRejects(t *testing.T) {
	t.Parallel()

	f := newTestFilter()
	items := indexOf([]Item{
		styledItem("b1", CategoryBottoms, "grey jogger pants", FormalityCasual),
		styledItem("s1", CategoryShoes, "black stiletto pumps", FormalityFormal),
	})
	combo := comboOf(
		member("b1", SlotBottom, TierHigh, 0.9),
		member("s1", SlotShoes, TierHigh, 0.9),
	)

	res := f.Check(combo, items)
	require.False(t, res.OK)
	require.Equal(t, ReasonSportyHeels, res.RejectCode)
	require.NotEmpty(t, res.Detail)

	// 豁免标记救不回 S2
	b := items["b1"]
	b.Notes = "streetwear staple"
	items["b1"] = b
	res = f.Check(combo, items)
	require.False(t, res.OK)
	require.Equal(t, ReasonSportyHeels, res.RejectCode)
}

func TestCoherenceFormalityClash(t *testing.T) {
	t.Parallel()

	f := newTestFilter()

	// 休闲下装（band 0）+ 正装鞋（band 2）：S1 拒绝
	items := indexOf([]Item{
		styledItem("b1", CategoryBottoms, "distressed denim shorts", FormalityCasual),
		styledItem("s1", CategoryShoes, "black leather oxford", FormalityFormal),
	})
	combo := comboOf(
		member("b1", SlotBottom, TierHigh, 0.9),
		member("s1", SlotShoes, TierHigh, 0.9),
	)
	res := f.Check(combo, items)
	require.False(t, res.OK)
	require.Equal(t, ReasonFormalityClash, res.RejectCode)

	// 任一成员带豁免风格就放行
	b := items["b1"]
	b.Notes = "edgy street mix"
	items["b1"] = b
	res = f.Check(combo, items)
	require.True(t, res.OK)
	require.Equal(t, 0, res.Penalty)

	// 断层不足 2 不触发：商务休闲（band 1）+ 正装（band 2）
	items2 := indexOf([]Item{
		styledItem("b1", CategoryBottoms, "chino trousers", FormalitySmartCasual),
		styledItem("s1", CategoryShoes, "black leather oxford", FormalityFormal),
	})
	res = f.Check(combo, items2)
	require.True(t, res.OK)
}

func TestCoherenceFormalAthleticDemotesInsteadOfS1(t *testing.T) {
	t.Parallel()

	f := newTestFilter()

	// 正式下装（band 2）+ 运动鞋（band 0）：band 断层本该命中 S1，
	// 但正式下装+运动鞋是 S3 模式，S1 整条跳过，改为降档接受
	items := indexOf([]Item{
		styledItem("b1", CategoryBottoms, "tailored suit trousers", FormalityFormal),
		styledItem("s1", CategoryShoes, "white running sneakers", FormalityCasual),
	})
	combo := comboOf(
		member("b1", SlotBottom, TierHigh, 0.9),
		member("s1", SlotShoes, TierHigh, 0.9),
	)

	res := f.Check(combo, items)
	require.True(t, res.OK)
	require.Equal(t, 1, res.Penalty)
	require.Equal(t, []string{ReasonFormalWithAthletic}, res.Reasons)
}

func TestCoherenceFormalAthleticWithoutBandGap(t *testing.T) {
	t.Parallel()

	f := newTestFilter()

	// 正式下装 + 商务休闲运动鞋：断层只有 1，S1 本就不触发，S3 仍降档
	items := indexOf([]Item{
		styledItem("b1", CategorySkirts, "pencil skirt suit", FormalityFormal),
		styledItem("s1", CategoryShoes, "leather trainer", FormalitySmartCasual),
	})
	combo := comboOf(
		member("b1", SlotBottom, TierHigh, 0.9),
		member("s1", SlotShoes, TierMedium, 0.8),
	)

	res := f.Check(combo, items)
	require.True(t, res.OK)
	require.Equal(t, 1, res.Penalty)
	require.Equal(t, []string{ReasonFormalWithAthletic}, res.Reasons)
}

func TestCoherenceDressActsAsBottom(t *testing.T) {
	t.Parallel()

	f := newTestFilter()
	items := indexOf([]Item{
		styledItem("d1", CategoryDresses, "evening gown", FormalityEvening),
		styledItem("s1", CategoryShoes, "white running sneakers", FormalityCasual),
	})
	combo := comboOf(
		member("d1", SlotDress, TierHigh, 0.9),
		member("s1", SlotShoes, TierHigh, 0.9),
	)

	// 裙装占下装角色：晚装裙（band 2）+ 运动鞋 → S3 降档
	res := f.Check(combo, items)
	require.True(t, res.OK)
	require.Equal(t, 1, res.Penalty)
}

func TestCoherenceTopBottomClash(t *testing.T) {
	t.Parallel()

	f := newTestFilter()
	items := indexOf([]Item{
		styledItem("t1", CategoryTops, "washed graphic tee", FormalityCasual),
		styledItem("b1", CategoryBottoms, "tailored suit trousers", FormalityFormal),
	})
	combo := comboOf(
		member("t1", SlotTop, TierHigh, 0.9),
		member("b1", SlotBottom, TierHigh, 0.9),
	)

	res := f.Check(combo, items)
	require.False(t, res.OK)
	require.Equal(t, ReasonTopBottomClash, res.RejectCode)

	// 豁免风格放行
	tt := items["t1"]
	tt.Notes = "streetwear staple"
	items["t1"] = tt
	res = f.Check(combo, items)
	require.True(t, res.OK)
}

func TestCoherenceUnknownFormalityNeverFires(t *testing.T) {
	t.Parallel()

	f := newTestFilter()

	// 下装无正式度信号：S1/TB1/S3 全不触发（无信号 ≠ 违规）
	items := indexOf([]Item{
		plainItem("b1", CategoryBottoms, "mystery pants"),
		styledItem("s1", CategoryShoes, "black leather oxford", FormalityFormal),
		styledItem("t1", CategoryTops, "washed graphic tee", FormalityCasual),
	})
	combo := comboOf(
		member("t1", SlotTop, TierHigh, 0.9),
		member("b1", SlotBottom, TierHigh, 0.9),
		member("s1", SlotShoes, TierHigh, 0.9),
	)

	res := f.Check(combo, items)
	require.True(t, res.OK)
	require.Equal(t, 0, res.Penalty)
	require.Empty(t, res.Reasons)
}

func TestCoherenceFilterBatch(t *testing.T) {
	t.Parallel()

	f := newTestFilter()
	items := indexOf([]Item{
		styledItem("b1", CategoryBottoms, "grey jogger pants", FormalityCasual),
		styledItem("b2", CategoryBottoms, "tailored suit trousers", FormalityFormal),
		styledItem("s1", CategoryShoes, "black stiletto pumps", FormalityFormal),
		styledItem("s2", CategoryShoes, "white running sneakers", FormalityCasual),
	})

	rejected := comboOf(member("b1", SlotBottom, TierHigh, 0.9), member("s1", SlotShoes, TierHigh, 0.9))
	demoted := comboOf(member("b2", SlotBottom, TierHigh, 0.9), member("s2", SlotShoes, TierHigh, 0.9))
	clean := comboOf(member("b1", SlotBottom, TierHigh, 0.9), member("s2", SlotShoes, TierHigh, 0.9))

	passing, penalties, rejections := f.Filter(context.Background(), []AssembledCombo{rejected, demoted, clean}, items)

	require.Equal(t, []string{demoted.ID, clean.ID}, comboIDs(passing))
	require.Equal(t, map[string]int{demoted.ID: 1, clean.ID: 0}, penalties)
	require.Equal(t, map[string]int{ReasonSportyHeels: 1}, rejections)

	// 降档组合回填 penalty 与原因码
	require.Equal(t, 1, passing[0].Penalty)
	require.Equal(t, []string{ReasonFormalWithAthletic}, passing[0].StyleNotes)
	require.Equal(t, 0, passing[1].Penalty)
	require.Empty(t, passing[1].StyleNotes)
}
