package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCommentAssignments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "classified_comments.csv")
	payload := `channel,channel_translated,video_url,text,text_translated,author,date,likes,code,code_5_sub,justification
미맥스터디,Mimac Study,https://youtube.com/watch?v=a,댓글,comment,user1,2018-05-01T10:00:00Z,3,14,,praises instructor skill
미맥스터디,,https://youtube.com/watch?v=b,댓글 둘,second,user2,2019-01-01T00:00:00Z,0,5,c,drug case mention
미맥스터디,Mimac Study,https://youtube.com/watch?v=c,세번째,third,user3,2019-02-01T00:00:00Z,1,,,unclassified row
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	assignments, err := LoadCommentAssignments(path)
	if err != nil {
		t.Fatalf("LoadCommentAssignments error: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("expected 2 coded rows, got %d", len(assignments))
	}
	first := assignments[0]
	if first.URL != "https://youtube.com/watch?v=a" || first.Code != 14 {
		t.Fatalf("unexpected first assignment: %+v", first)
	}
	if first.Publication != "Mimac Study" {
		t.Fatalf("translated channel should back the publication: %q", first.Publication)
	}
	// untranslated channel falls back to the Korean name
	if assignments[1].Publication != "미맥스터디" || assignments[1].Code5Sub != "c" {
		t.Fatalf("unexpected second assignment: %+v", assignments[1])
	}
}
