package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferReporterByline(t *testing.T) {
	body := "경제 소식입니다.\n\nYTN 김민수 (minsu.kim@ytn.co.kr)"

	rep := InferReporter(body)
	assert.Equal(t, "김민수", rep.Name)
	assert.Equal(t, "minsu.kim@ytn.co.kr", rep.Email)
}

func TestInferReporterLastBylineWins(t *testing.T) {
	body := "앞서 YTN 박지훈 (jihoon@ytn.co.kr) 기자가 보도했습니다.\n" +
		"추가 취재 내용입니다.\n" +
		"YTN 이서연 (seoyeon.lee@ytn.co.kr)"

	rep := InferReporter(body)
	assert.Equal(t, "이서연", rep.Name)
	assert.Equal(t, "seoyeon.lee@ytn.co.kr", rep.Email)
}

func TestInferReporterPriority(t *testing.T) {
	// Byline beats the production marker even when both are present.
	body := "제작 : 최현우\nYTN 김민수 (minsu.kim@ytn.co.kr)"

	rep := InferReporter(body)
	assert.Equal(t, "김민수", rep.Name)
	assert.Equal(t, "minsu.kim@ytn.co.kr", rep.Email)
}

func TestInferReporterProductionMarker(t *testing.T) {
	for _, body := range []string{
		"오늘의 영상이었습니다.\n제작 : 최현우",
		"오늘의 영상이었습니다.\n제작 | 최현우",
	} {
		rep := InferReporter(body)
		assert.Equal(t, "최현우", rep.Name, "body: %s", body)
		assert.Empty(t, rep.Email)
	}
}

func TestInferReporterExcerptMarker(t *testing.T) {
	for _, body := range []string{
		"인터뷰 전문입니다.\n대담 발췌 : 정다은",
		"인터뷰 전문입니다.\n대담 발췌 | 정다은",
	} {
		rep := InferReporter(body)
		assert.Equal(t, "정다은", rep.Name, "body: %s", body)
		assert.Empty(t, rep.Email)
	}
}

func TestInferReporterProductionBeatsExcerpt(t *testing.T) {
	body := "대담 발췌 : 정다은\n제작 : 최현우"

	rep := InferReporter(body)
	assert.Equal(t, "최현우", rep.Name)
}

func TestInferReporterStopsAtBoilerplate(t *testing.T) {
	// A byline appearing only in the footer boilerplate must not count.
	body := "본문 내용입니다.\n" + boilerplateMarker + "\nYTN 김민수 (minsu.kim@ytn.co.kr)"

	rep := InferReporter(body)
	assert.Empty(t, rep.Name)
	assert.Empty(t, rep.Email)
}

func TestInferReporterNone(t *testing.T) {
	rep := InferReporter("기자 표기가 전혀 없는 본문")
	assert.Equal(t, Reporter{}, rep)
}
