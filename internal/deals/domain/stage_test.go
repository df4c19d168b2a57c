package domain

import "testing"

func TestNewStageOrderRejectsClosedLost(t *testing.T) {
	_, err := NewStageOrder(StageLead, StageClosedLost, StageClosedWon)
	if err == nil {
		t.Fatal("expected error for closed_lost in linear order, got nil")
	}
}

func TestNewStageOrderRejectsDuplicates(t *testing.T) {
	_, err := NewStageOrder(StageLead, StageDemo, StageLead)
	if err == nil {
		t.Fatal("expected error for duplicate stage, got nil")
	}
}

func TestStepsAhead(t *testing.T) {
	order := DefaultStageOrder()

	cases := []struct {
		name      string
		from, to  Stage
		wantSteps int
		wantOK    bool
	}{
		{"adjacent forward", StageLead, StageDiscovery, 1, true},
		{"two ahead", StageLead, StageDemo, 2, true},
		{"behind", StageDemo, StageLead, -2, true},
		{"same", StageDemo, StageDemo, 0, true},
		{"into closed_won", StageProposal, StageClosedWon, 1, true},
		{"side exit", StageDemo, StageClosedLost, 0, false},
		{"from side exit", StageClosedLost, StageDemo, 0, false},
	}

	for _, tc := range cases {
		steps, ok := order.StepsAhead(tc.from, tc.to)
		if ok != tc.wantOK || steps != tc.wantSteps {
			t.Errorf("%s: StepsAhead(%s, %s) = (%d, %v), want (%d, %v)",
				tc.name, tc.from, tc.to, steps, ok, tc.wantSteps, tc.wantOK)
		}
	}
}

func TestBetween(t *testing.T) {
	order := DefaultStageOrder()

	cases := []struct {
		name     string
		from, to Stage
		want     []Stage
	}{
		{"adjacent has no skips", StageLead, StageDiscovery, nil},
		{"jump of two skips one", StageLead, StageDemo, []Stage{StageDiscovery}},
		{"lead to proposal", StageLead, StageProposal, []Stage{StageDiscovery, StageDemo, StageNegotiation}},
		{"lead to closed_won", StageLead, StageClosedWon, []Stage{StageDiscovery, StageDemo, StageNegotiation, StageProposal}},
		{"backward has no skips", StageProposal, StageLead, nil},
		{"side exit has no skips", StageLead, StageClosedLost, nil},
	}

	for _, tc := range cases {
		got := order.Between(tc.from, tc.to)
		if len(got) != len(tc.want) {
			t.Errorf("%s: Between(%s, %s) = %v, want %v", tc.name, tc.from, tc.to, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: Between(%s, %s)[%d] = %s, want %s", tc.name, tc.from, tc.to, i, got[i], tc.want[i])
			}
		}
	}
}

func TestIsRegression(t *testing.T) {
	order := DefaultStageOrder()

	if !order.IsRegression(StageProposal, StageDemo) {
		t.Error("proposal -> demo should be a regression")
	}
	if order.IsRegression(StageDemo, StageProposal) {
		t.Error("demo -> proposal should not be a regression")
	}
	if order.IsRegression(StageProposal, StageClosedLost) {
		t.Error("side exit should never be a regression")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, stage := range []Stage{StageClosedWon, StageClosedLost} {
		if !IsTerminal(stage) {
			t.Errorf("IsTerminal(%s) = false, want true", stage)
		}
	}
	for _, stage := range []Stage{StageLead, StageDiscovery, StageDemo, StageNegotiation, StageProposal} {
		if IsTerminal(stage) {
			t.Errorf("IsTerminal(%s) = true, want false", stage)
		}
	}
}
