package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/scanner"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestYonhapScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "학원강사" {
			t.Errorf("unexpected query: %s", q.Get("query"))
		}
		if q.Get("from") != "20050101" || q.Get("to") != "20191231" {
			t.Errorf("unexpected date bounds: %s - %s", q.Get("from"), q.Get("to"))
		}
		_, _ = w.Write([]byte(`{
			"YIB_KR_A": {
				"totalCount": 2,
				"result": [
					{"CID": "AKR001", "TITLE": "<b>학원강사</b> 구속", "BODY": "서울의 <b>학원강사</b>가...", "DATETIME": "20150301120000", "WRITER_NAME": "김기자"},
					{"CID": "AKR002", "TITLE": "두번째 기사", "BODY": "본문", "DATETIME": "20160401090000", "WRITER_NAME": ""}
				]
			}
		}`))
	}))
	defer server.Close()

	y := NewYonhapScanner(server.Client(), discard())
	records, err := y.Scan(context.Background(), scanner.Request{
		SiteName:   "yonhap",
		Keywords:   []string{"학원강사"},
		FromYear:   2005,
		ToYear:     2019,
		Categories: []scanner.Category{{Name: "search", URL: server.URL}},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.URL != "https://www.yna.co.kr/view/AKR001" {
		t.Fatalf("unexpected url: %s", first.URL)
	}
	if first.Title != "학원강사 구속" || strings.Contains(first.Text, "<b>") {
		t.Fatalf("bold markers not stripped: %q / %q", first.Title, first.Text)
	}
	if first.KeywordsMatched[0] != "학원강사" {
		t.Fatalf("keyword not recorded: %v", first.KeywordsMatched)
	}
}

func TestYonhapScanRequiresConfig(t *testing.T) {
	t.Parallel()

	y := NewYonhapScanner(nil, discard())
	if _, err := y.Scan(context.Background(), scanner.Request{SiteName: "yonhap"}); err == nil {
		t.Fatal("expected error without categories")
	}
	if _, err := y.Scan(context.Background(), scanner.Request{
		SiteName:   "yonhap",
		Categories: []scanner.Category{{URL: "https://example.com"}},
	}); err == nil {
		t.Fatal("expected error without keywords")
	}
}

func TestDateBounds(t *testing.T) {
	t.Parallel()

	from, to := dateBounds(scanner.Request{FromYear: 2005, ToYear: 2019})
	if from != "20050101" || to != "20191231" {
		t.Fatalf("unexpected bounds: %s - %s", from, to)
	}

	from, to = dateBounds(scanner.Request{FromYear: 2005, ToYear: 2019, ScrapeDate: "20150301"})
	if from != "20150301" || to != "20150301" {
		t.Fatalf("scrape date not honored: %s - %s", from, to)
	}
}

func TestDedupeRecords(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{URL: "https://news/1", Title: "first"},
		{URL: "https://news/2", Title: "second"},
		{URL: "https://news/1", Title: "duplicate"},
	}
	out := dedupeRecords(records)
	if len(out) != 2 || out[0].Title != "first" || out[1].Title != "second" {
		t.Fatalf("unexpected dedupe: %+v", out)
	}
}

func TestDongaSitemapURLs(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex>
  <sitemap><loc>` + server.URL + `/sitemap-2015.xml</loc></sitemap>
  <sitemap><loc>` + server.URL + `/sitemap-2003.xml</loc></sitemap>
</sitemapindex>`))
	})
	mux.HandleFunc("/sitemap-2015.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset>
  <url><loc>https://www.donga.com/news/article/all/20150301/1/1</loc></url>
  <url><loc>https://www.donga.com/news/article/all/20150302/2/1</loc></url>
</urlset>`))
	})
	mux.HandleFunc("/sitemap-2003.xml", func(w http.ResponseWriter, r *http.Request) {
		t.Error("sitemap outside the year range should not be fetched")
	})

	d := NewDongaScanner(server.Client(), discard())
	d.delay = 0
	urls, err := d.sitemapURLs(context.Background(), server.URL+"/index.xml", 2005, 2019)
	if err != nil {
		t.Fatalf("sitemapURLs error: %v", err)
	}
	if len(urls) != 2 || !strings.Contains(urls[0], "20150301") {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestSplitDongaByline(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		in         string
		wantText   string
		wantAuthor string
	}{
		{
			name:       "reporter byline",
			in:         "기사 본문 첫 줄\n기사 본문 둘째 줄\n홍길동 기자 hong@donga.com",
			wantText:   "기사 본문 첫 줄\n기사 본문 둘째 줄",
			wantAuthor: "홍길동",
		},
		{
			name:       "byline with location prefix",
			in:         "본문\n부산=김철수 기자 kim@donga.com",
			wantText:   "본문",
			wantAuthor: "김철수",
		},
		{
			name:       "no byline",
			in:         "본문 첫 줄\n본문 둘째 줄",
			wantText:   "본문 첫 줄\n본문 둘째 줄",
			wantAuthor: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			text, author := splitDongaByline(tc.in)
			if text != tc.wantText || author != tc.wantAuthor {
				t.Fatalf("got (%q, %q), want (%q, %q)", text, author, tc.wantText, tc.wantAuthor)
			}
		})
	}
}

func TestNameMentionsYear(t *testing.T) {
	t.Parallel()

	if !nameMentionsYear("sitemap-2015-03.xml", 2005, 2019) {
		t.Fatal("2015 should match")
	}
	if nameMentionsYear("sitemap-2003-01.xml", 2005, 2019) {
		t.Fatal("2003 should not match")
	}
	if nameMentionsYear("sitemap-latest.xml", 2005, 2019) {
		t.Fatal("no year should not match")
	}
}

func TestExtractArticleLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="/article/23456789?cloc=search">기사 하나</a>
		<a href="https://www.joongang.co.kr/article/23456790">기사 둘</a>
		<a href="/politics/index">검색 외 링크</a>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	urls := extractArticleLinks(doc)
	if len(urls) != 2 {
		t.Fatalf("expected 2 links, got %v", urls)
	}
	if urls[0] != "https://www.joongang.co.kr/article/23456789" {
		t.Fatalf("relative link not absolutized or query not dropped: %s", urls[0])
	}
	if urls[1] != "https://www.joongang.co.kr/article/23456790" {
		t.Fatalf("unexpected second link: %s", urls[1])
	}
}

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()

	got, err := buildSearchURL("https://www.joongang.co.kr/search", "학원강사", "2005-01-01", "2019-12-31", 3)
	if err != nil {
		t.Fatalf("buildSearchURL error: %v", err)
	}
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	q := parsed.Query()
	if q.Get("keyword") != "학원강사" || q.Get("page") != "3" {
		t.Fatalf("unexpected query: %s", parsed.RawQuery)
	}
	if q.Get("startDate") != "2005-01-01" || q.Get("endDate") != "2019-12-31" {
		t.Fatalf("date range missing: %s", parsed.RawQuery)
	}
}

func TestNewsIDFrom(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"/news/endPage.do?news_id=N1001234567", "N1001234567"},
		{"/news/endPage.do?news_id=N1001234567&plink=SEARCH", "N1001234567"},
		{"/news/endPage.do?plink=SEARCH", ""},
	}
	for _, tc := range cases {
		if got := newsIDFrom(tc.in); got != tc.want {
			t.Errorf("newsIDFrom(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildSBSSearchURL(t *testing.T) {
	t.Parallel()

	got, err := buildSBSSearchURL("https://searchapi.news.sbs.co.kr/search/main", "학원강사", 2015, 2)
	if err != nil {
		t.Fatalf("buildSBSSearchURL error: %v", err)
	}
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	q := parsed.Query()
	if q.Get("query") != "학원강사" || q.Get("pageIdx") != "2" {
		t.Fatalf("unexpected query: %s", parsed.RawQuery)
	}
	if q.Get("startDate") != "2015-01-01" || q.Get("endDate") != "2015-12-31" {
		t.Fatalf("year bounds missing: %s", parsed.RawQuery)
	}
}

func TestRSSScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>교육 뉴스</title>
    <item>
      <title>학원강사 관련 소식</title>
      <link>https://example.com/news/1</link>
      <description>서울의 학원강사가...</description>
      <pubDate>Mon, 02 Mar 2015 12:00:00 +0900</pubDate>
    </item>
    <item>
      <title>날씨 소식</title>
      <link>https://example.com/news/2</link>
      <description>내일은 맑음</description>
    </item>
  </channel>
</rss>`))
	}))
	defer server.Close()

	r := NewRSSScanner(discard())
	records, err := r.Scan(context.Background(), scanner.Request{
		SiteName:   "rssfeed",
		Keywords:   []string{"학원강사"},
		Categories: []scanner.Category{{Name: "education", URL: server.URL}},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 matching item, got %d", len(records))
	}
	rec := records[0]
	if rec.URL != "https://example.com/news/1" || rec.Publication != "rssfeed" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !strings.HasPrefix(rec.Date, "2015-03-02T12:00:00") {
		t.Fatalf("pubDate not normalized: %s", rec.Date)
	}
}

func TestMatchKeywords(t *testing.T) {
	t.Parallel()

	matched := matchKeywords("서울 학원강사와 과외 이야기", []string{"학원강사", "과외", "수능"})
	if len(matched) != 2 || matched[0] != "학원강사" || matched[1] != "과외" {
		t.Fatalf("unexpected matches: %v", matched)
	}
	if got := matchKeywords("아무 내용", nil); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}
