package models

import "testing"

func TestPeriodicRollup_BucketScore(t *testing.T) {
	r := &PeriodicRollup{
		FoodScore:     0.8,
		ServiceScore:  0.6,
		AmbienceScore: 0.4,
		ValueScore:    0.2,
	}

	cases := map[string]float64{
		BucketFood:     0.8,
		BucketService:  0.6,
		BucketAmbience: 0.4,
		BucketValue:    0.2,
		"unknown":      0,
	}
	for bucket, want := range cases {
		if got := r.BucketScore(bucket); got != want {
			t.Errorf("BucketScore(%q) = %v, expected %v", bucket, got, want)
		}
	}
}

func TestPeriodicRollup_DecodeRankedArrays(t *testing.T) {
	r := &PeriodicRollup{
		TopStrengths:     `[{"category":"wait_time","avg_intensity":0.9,"mentions":12}]`,
		TopPositiveItems: `[{"name":"Brisket Tacos","count":22},{"name":"Queso","count":10}]`,
	}

	strengths := r.Strengths()
	if len(strengths) != 1 {
		t.Fatalf("got %d strengths, expected 1", len(strengths))
	}
	if strengths[0].Category != "wait_time" || strengths[0].AvgIntensity != 0.9 || strengths[0].Mentions != 12 {
		t.Errorf("strengths[0] = %+v", strengths[0])
	}

	items := r.PositiveItems()
	if len(items) != 2 || items[0].Name != "Brisket Tacos" {
		t.Errorf("items = %v", items)
	}
}

func TestPeriodicRollup_DecodeTolerance(t *testing.T) {
	r := &PeriodicRollup{
		TopStrengths:  "",
		TopComplaints: "{not valid json",
	}

	if got := r.Strengths(); got == nil || len(got) != 0 {
		t.Errorf("empty column decoded to %v, expected empty slice", got)
	}
	if got := r.Complaints(); got == nil || len(got) != 0 {
		t.Errorf("malformed column decoded to %v, expected empty slice", got)
	}
	if got := r.Opportunities(); got == nil || len(got) != 0 {
		t.Errorf("missing column decoded to %v, expected empty slice", got)
	}
}

func TestTrackedEntity_IsOwn(t *testing.T) {
	own := TrackedEntity{Kind: EntityKindOwn}
	comp := TrackedEntity{Kind: EntityKindCompetitor}

	if !own.IsOwn() {
		t.Error("own entity must report IsOwn")
	}
	if comp.IsOwn() {
		t.Error("competitor must not report IsOwn")
	}
}

func TestBuckets_Order(t *testing.T) {
	want := []string{"food", "service", "ambience", "value"}
	if len(Buckets) != len(want) {
		t.Fatalf("got %d buckets", len(Buckets))
	}
	for i, b := range want {
		if Buckets[i] != b {
			t.Errorf("Buckets[%d] = %q, expected %q", i, Buckets[i], b)
		}
	}
}
