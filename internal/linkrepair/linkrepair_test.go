package linkrepair

import (
	"testing"

	"horizonscan/internal/domain"
)

func TestSuspicious(t *testing.T) {
	t.Parallel()

	cases := []struct {
		link string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"https://cfpb.example/newsroom/", true},
		{"https://reg.example/page#content__main", true},
		{"https://reg.example/news?topics=banking", true},
		{"https://reg.example/list?filters=2024", true},
		{"https://reg.example/2024/final-rule", false},
		{"https://cfpb.example/newsroom/cfpb-fines-acme", false},
	}

	for _, tc := range cases {
		if got := Suspicious(tc.link); got != tc.want {
			t.Fatalf("Suspicious(%q) = %v, want %v", tc.link, got, tc.want)
		}
	}
}

func TestRepairLowVarietyReassignsSuspiciousLinks(t *testing.T) {
	t.Parallel()

	nav := "https://cfpb.example/newsroom/"
	updates := []domain.Update{
		{Topic: "CFPB fines Acme Bank for overdraft practices", Link: nav},
		{Topic: "CFPB issues final rule on data brokers", Link: nav},
		{Topic: "CFPB report on junk fees", Link: nav},
	}
	inventory := []string{
		"https://cfpb.example/about-us/",
		"https://cfpb.example/newsroom/cfpb-fines-acme-bank-for-overdraft-practices",
		"https://cfpb.example/newsroom/cfpb-issues-final-rule-on-data-brokers",
		"https://cfpb.example/newsroom/cfpb-report-on-junk-fees",
	}

	New(nil).RepairLowVariety(updates, inventory)

	want := []string{
		"https://cfpb.example/newsroom/cfpb-fines-acme-bank-for-overdraft-practices",
		"https://cfpb.example/newsroom/cfpb-issues-final-rule-on-data-brokers",
		"https://cfpb.example/newsroom/cfpb-report-on-junk-fees",
	}
	for i := range updates {
		if updates[i].Link != want[i] {
			t.Fatalf("updates[%d].Link = %s, want %s", i, updates[i].Link, want[i])
		}
	}
}

func TestRepairLowVarietySkipsHealthyAssignments(t *testing.T) {
	t.Parallel()

	updates := []domain.Update{
		{Topic: "Rule one", Link: "https://reg.example/2024/rule-one"},
		{Topic: "Rule two", Link: "https://reg.example/2024/rule-two"},
		{Topic: "Rule three", Link: "https://reg.example/2024/rule-three"},
		{Topic: "Rule four missing link", Link: ""},
	}
	inventory := []string{"https://reg.example/2024/rule-four-missing-link"}

	New(nil).RepairLowVariety(updates, inventory)

	if updates[3].Link != "" {
		t.Fatalf("healthy set should be left alone, got %s", updates[3].Link)
	}
}

func TestRepairLowVarietyDominantLinkTriggers(t *testing.T) {
	t.Parallel()

	nav := "https://sec.example/press/"
	updates := []domain.Update{
		{Topic: "SEC charges broker with fraud", Link: nav},
		{Topic: "SEC adopts climate disclosure rule", Link: nav},
		{Topic: "SEC settles with clearing agency", Link: nav},
		{Topic: "SEC proposes dealer registration", Link: nav},
		{Topic: "Unrelated A", Link: "https://sec.example/2024/a-notice"},
		{Topic: "Unrelated B", Link: "https://sec.example/2024/b-notice"},
		{Topic: "Unrelated C", Link: "https://sec.example/2024/c-notice"},
	}
	inventory := []string{
		"https://sec.example/2024/sec-charges-broker-with-fraud",
		"https://sec.example/2024/sec-adopts-climate-disclosure-rule",
		"https://sec.example/2024/sec-settles-with-clearing-agency",
		"https://sec.example/2024/sec-proposes-dealer-registration",
	}

	New(nil).RepairLowVariety(updates, inventory)

	if updates[0].Link != "https://sec.example/2024/sec-charges-broker-with-fraud" {
		t.Fatalf("dominant suspicious link not repaired: %s", updates[0].Link)
	}
	if updates[3].Link != "https://sec.example/2024/sec-proposes-dealer-registration" {
		t.Fatalf("dominant suspicious link not repaired: %s", updates[3].Link)
	}
	if updates[4].Link != "https://sec.example/2024/a-notice" {
		t.Fatalf("clean link should be untouched, got %s", updates[4].Link)
	}
}

func TestRepairRepetitionUsesUpdateLikeCandidates(t *testing.T) {
	t.Parallel()

	repeated := "https://treasury.example/press-releases/"
	updates := []domain.Update{
		{Topic: "Treasury sanctions crypto exchange", Link: repeated},
		{Topic: "OFAC updates SDN list guidance", Link: repeated},
		{Topic: "Quarterly refunding statement", Link: "https://treasury.example/2024/quarterly-refunding"},
		{Topic: "FinCEN issues beneficial ownership rule", Link: ""},
		{Topic: "Minutes of advisory committee", Link: "https://treasury.example/2024/advisory-minutes"},
	}
	inventory := []string{
		"https://treasury.example/press#content__main",
		"https://treasury.example/news?topics=sanctions",
		"https://treasury.example/2024/treasury-sanctions-crypto-exchange",
		"https://treasury.example/2024/ofac-updates-sdn-list-guidance",
		"https://treasury.example/2024/fincen-beneficial-ownership-rule",
	}

	New(nil).RepairRepetition(updates, inventory)

	if updates[0].Link != "https://treasury.example/2024/treasury-sanctions-crypto-exchange" {
		t.Fatalf("repeated link not repaired: %s", updates[0].Link)
	}
	if updates[1].Link != "https://treasury.example/2024/ofac-updates-sdn-list-guidance" {
		t.Fatalf("repeated link not repaired: %s", updates[1].Link)
	}
	if updates[3].Link != "https://treasury.example/2024/fincen-beneficial-ownership-rule" {
		t.Fatalf("empty link not repaired: %s", updates[3].Link)
	}
	if updates[2].Link != "https://treasury.example/2024/quarterly-refunding" {
		t.Fatalf("clean link should be untouched, got %s", updates[2].Link)
	}
}

func TestRepairRepetitionSkipsWhenLinksVaried(t *testing.T) {
	t.Parallel()

	updates := []domain.Update{
		{Topic: "One", Link: "https://reg.example/2024/one"},
		{Topic: "Two", Link: "https://reg.example/2024/two"},
		{Topic: "Three", Link: "https://reg.example/2024/three"},
		{Topic: "Four", Link: "https://reg.example/2024/four"},
		{Topic: "Five", Link: "https://reg.example/2024/five"},
		{Topic: "Six", Link: "https://reg.example/2024/six"},
	}
	inventory := []string{"https://reg.example/2024/other"}

	New(nil).RepairRepetition(updates, inventory)

	if updates[0].Link != "https://reg.example/2024/one" {
		t.Fatalf("varied links should be untouched, got %s", updates[0].Link)
	}
}

func TestFilterUpdateLike(t *testing.T) {
	t.Parallel()

	links := []string{
		"https://reg.example/2024/final-rule",
		"https://cfpb.example/newsroom/cfpb-fines-acme",
		"https://finra.example/finra-sanctions-broker",
		"https://www.whitehouse.example/briefing",
		"https://reg.example/2024/rule#content__main",
		"https://reg.example/news?topics=banking",
		"https://reg.example/list?filters=recent",
		"https://example.com/about",
	}

	got := FilterUpdateLike(links)

	want := []string{
		"https://reg.example/2024/final-rule",
		"https://cfpb.example/newsroom/cfpb-fines-acme",
		"https://finra.example/finra-sanctions-broker",
		"https://www.whitehouse.example/briefing",
	}
	if len(got) != len(want) {
		t.Fatalf("FilterUpdateLike = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FilterUpdateLike[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFillEmptyOnlyTouchesEmptyLinks(t *testing.T) {
	t.Parallel()

	updates := []domain.Update{
		{Topic: "Consumer data rights rule", Link: ""},
		{Topic: "Keep me", Link: "https://reg.example/2024/keep"},
	}
	inventory := []string{"https://cfpb.example/2024/consumer-data-rights-rule"}

	New(nil).FillEmpty(updates, inventory)

	if updates[0].Link != "https://cfpb.example/2024/consumer-data-rights-rule" {
		t.Fatalf("empty link not filled: %s", updates[0].Link)
	}
	if updates[1].Link != "https://reg.example/2024/keep" {
		t.Fatalf("assigned link overwritten: %s", updates[1].Link)
	}
}

func TestClosestLinkDeterministicOnTies(t *testing.T) {
	t.Parallel()

	engine := New(nil)
	inventory := []string{
		"https://x.example/abc-def-b",
		"https://x.example/abc-def-a",
	}

	got, ok := engine.ClosestLink("abc def", inventory)
	if !ok {
		t.Fatalf("expected a match")
	}
	if got != "https://x.example/abc-def-a" {
		t.Fatalf("tie should resolve to lexicographically first candidate, got %s", got)
	}
}

func TestClosestLinkBelowCutoff(t *testing.T) {
	t.Parallel()

	engine := New(nil)
	if link, ok := engine.ClosestLink("zzzz qqqq", []string{"https://reg.example/2024/update-one"}); ok {
		t.Fatalf("expected no match, got %s", link)
	}
}
