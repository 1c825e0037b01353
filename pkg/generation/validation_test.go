/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traas-stack/logmatcher/pkg/catalog"
)

func TestValidateAcceptsWellFormedCandidate(t *testing.T) {
	cat := catalog.New()
	c := Candidate{
		Pattern:   "ERROR <*> failed",
		Fragments: []string{"ERROR", "failed"},
		Variables: []string{"task"},
	}
	err := Validate(c, "ERROR: task-42 failed", 3, cat)
	assert.NoError(t, err)
}

func TestValidateRejectsAllFragmentsShort(t *testing.T) {
	cat := catalog.New()
	c := Candidate{
		Pattern:   "E <*> ok",
		Fragments: []string{"E", "ok"},
	}
	err := Validate(c, "E task-42 ok", 3, cat)
	assert.Error(t, err)
}

func TestValidateAcceptsWhenOnlyOneFragmentMeetsMinLength(t *testing.T) {
	cat := catalog.New()
	c := Candidate{
		Pattern:   "E <*> failed",
		Fragments: []string{"E", "failed"},
	}
	err := Validate(c, "E task-42 failed", 3, cat)
	assert.NoError(t, err)
}

func TestValidateRejectsOutOfOrderFragments(t *testing.T) {
	cat := catalog.New()
	c := Candidate{
		Pattern:   "failed <*> ERROR",
		Fragments: []string{"failed", "ERROR"},
	}
	err := Validate(c, "ERROR: task-42 failed", 3, cat)
	assert.Error(t, err)
}

func TestValidateRejectsDuplicatePattern(t *testing.T) {
	cat := catalog.New()
	cat.Add("ERROR <*> failed", []string{"ERROR", "failed"}, "", nil)

	c := Candidate{
		Pattern:   "ERROR <*> failed",
		Fragments: []string{"ERROR", "failed"},
	}
	err := Validate(c, "ERROR: task-99 failed", 3, cat)
	assert.Error(t, err)
}

func TestValidateRejectsEmptyPattern(t *testing.T) {
	cat := catalog.New()
	err := Validate(Candidate{}, "anything", 3, cat)
	assert.Error(t, err)
}
