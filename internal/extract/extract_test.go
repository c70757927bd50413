package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/crawler"
)

const structuredPage = `<html><head>
<title>Senior Go Developer Job in Giza, Egypt - Acme - Apply Now</title>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[]}</script>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"JobPosting",
 "title":"Senior Go Developer","datePosted":"2025-06-10",
 "description":"&lt;p&gt;Build distributed crawlers in Go.&lt;/p&gt;&lt;ul&gt;&lt;li&gt;5+ years experience&lt;/li&gt;&lt;/ul&gt;",
 "hiringOrganization":{"@type":"Organization","name":"Acme Corp","logo":"https://images.example.com/acme.png?v=3"},
 "jobLocation":{"@type":"Place","address":{"addressLocality":"Cairo","addressRegion":"cairo","addressCountry":{"@type":"Country","name":"Egypt"}}},
 "baseSalary":{"@type":"MonetaryAmount","currency":"EGP","value":{"@type":"QuantitativeValue","minValue":20000,"maxValue":30000,"unitText":"MONTH"}},
 "employmentType":["FULL_TIME"]}</script>
</head><body>
<h1>Wrong Title From Markup</h1>
<a href="/jobs/careers/Other-Co-Egypt">Other Co -</a>
<a href="/a/IT-Software-Development-Jobs-in-Egypt">IT/Software Development</a>
<a href="/a/Engineering-Telecom-Technology-Jobs-in-Egypt">Engineering - Telecom/Technology</a>
<a href="/a/IT-Software-Development-Jobs-in-Egypt?page=2">IT/Software Development</a>
<a href="/a/Full-Time-Jobs-in-Egypt">Full Time</a>
<a href="/a/Experienced-Jobs-in-Egypt">Experienced</a>
<a data-qa="skill-tag" href="/skills/go">Go</a>
<a data-qa="skill-tag" href="/skills/kubernetes">Kubernetes</a>
<a data-qa="skill-tag" href="/skills/golang">go</a>
</body></html>`

const markupPage = `<html><head><title>Data Engineer Job in Nasr City, Cairo - Beta Labs - Apply Now</title></head><body>
<header><a href="/">Home</a></header>
<h1 class="css-f9uh36">Data Engineer</h1>
<div class="css-d7j1kk"><a href="/jobs/careers/Beta-Labs-Egypt">Beta Labs -</a><span> Nasr City, Cairo, Egypt </span></div>
<div class="css-4c4ojb">Posted 3 days ago</div>
<div><span>Career Level:</span><span>Manager</span></div>
<div><span>Salary:</span><span>Confidential</span></div>
<span>Part Time</span>
<section><div><h2>Skills And Tools:</h2></div><div><a href="/skills/sql"><span>SQL</span></a><a href="/skills/python">Python</a><a href="/skills/py">python</a></div></section>
<div class="css-1uobp1k">
 <h2>Job Description</h2>
 <p>We are looking for a data engineer to build pipelines.</p>
 <p>Short.</p>
 <ul class="css-abc123"><li style="color:red">Design batch and streaming jobs</li><li>Own data quality</li></ul>
 <p>Viewed 120 times by candidates this week</p>
</div>
<section><h2>Similar Jobs</h2><ul><li>Another job posting that is long enough</li></ul></section>
<img class="logo" data-src="/logos/beta.png?x=1" src="data:image/gif;base64,AAAA">
</body></html>`

func newPage(t *testing.T, body string) *crawler.Page {
	t.Helper()
	page, err := crawler.NewPage("https://wuzzuf.net/jobs/p/xyz-Data-Engineer", []byte(body))
	require.NoError(t, err)
	return page
}

func TestExtractStructuredData(t *testing.T) {
	t.Parallel()

	ext := New(Config{}).Extract(newPage(t, structuredPage))

	assert.Equal(t, "Senior Go Developer", ext.Title)
	assert.Equal(t, "Acme Corp", ext.Company)
	assert.Equal(t, "2025-06-10", ext.DatePosted)
	assert.Equal(t, "Cairo, Egypt", ext.Location)
	assert.Equal(t, "EGP 20000 - 30000 per month", ext.Salary)
	assert.Equal(t, "FULL_TIME", ext.JobType)
	assert.Equal(t, "https://images.example.com/acme.png", ext.CompanyLogoURL)
	assert.Equal(t, "<p>Build distributed crawlers in Go.</p><ul><li>5+ years experience</li></ul>", ext.DescriptionHTML)
	assert.Equal(t, "Build distributed crawlers in Go. 5+ years experience", ext.DescriptionText)

	for _, field := range []string{FieldTitle, FieldCompany, FieldDatePosted, FieldLocation, FieldSalary, FieldJobType, FieldLogo, FieldDescription} {
		assert.Equal(t, sourceJSONLD, ext.Sources[field], field)
	}

	assert.Equal(t, []string{"IT/Software Development", "Engineering - Telecom/Technology"}, ext.Categories)
	assert.Equal(t, "Experienced", ext.CareerLevel)
	assert.Equal(t, []string{"Go", "Kubernetes"}, ext.Skills)
}

func TestExtractMarkupFallbacks(t *testing.T) {
	t.Parallel()

	ext := New(Config{}).Extract(newPage(t, markupPage))

	assert.Equal(t, "Data Engineer", ext.Title)
	assert.Equal(t, "title-selector", ext.Sources[FieldTitle])
	assert.Equal(t, "Beta Labs", ext.Company)
	assert.Equal(t, "Nasr City, Cairo", ext.Location)
	assert.Equal(t, "page-title", ext.Sources[FieldLocation])
	assert.Equal(t, "Confidential", ext.Salary)
	assert.Equal(t, "Manager", ext.CareerLevel)
	assert.Equal(t, "3 days ago", ext.DatePosted)
	assert.Equal(t, "Part Time", ext.JobType)
	assert.Equal(t, []string{"SQL", "Python"}, ext.Skills)
	assert.Equal(t, "https://wuzzuf.net/logos/beta.png", ext.CompanyLogoURL)
	assert.Empty(t, ext.Categories)

	assert.Equal(t,
		"<p>We are looking for a data engineer to build pipelines.</p>"+
			"<ul><li>Design batch and streaming jobs</li><li>Own data quality</li></ul>",
		ext.DescriptionHTML)
	assert.Equal(t, "We are looking for a data engineer to build pipelines. Design batch and streaming jobs Own data quality", ext.DescriptionText)
	assert.NotContains(t, ext.DescriptionHTML, "Similar")
	assert.NotContains(t, ext.DescriptionHTML, "Viewed")
}

func TestExtractMissingSalaryUsesSentinel(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><script type="application/ld+json">{bad json</script></head>
<body><h1>Accountant</h1></body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Accountant", ext.Title)
	assert.Equal(t, crawler.SalaryNotDisclosed, ext.Salary)
	assert.Equal(t, sourceDefault, ext.Sources[FieldSalary])
	assert.Empty(t, ext.Company)
	assert.Empty(t, ext.DescriptionHTML)
}

func TestExtractLocationNextToCompany(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title></head><body>
<h1>Support Agent</h1>
<div><a href="/jobs/careers/Gamma">Gamma -</a> <span>Remote - Posted 2 hours ago</span></div>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Remote", ext.Location)
	assert.Equal(t, "company-adjacent", ext.Sources[FieldLocation])
	assert.Equal(t, "2 hours ago", ext.DatePosted)
}

func TestExtractLocationRejectsNavigationText(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title></head><body>
<h1>Cashier</h1>
<span>Browse other jobs, apply today</span>
<span>Alexandria, Egypt</span>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Alexandria, Egypt", ext.Location)
	assert.Equal(t, "short-text", ext.Sources[FieldLocation])
}

func TestExtractMetadataLocation(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title>
<meta itemprop="addressLocality" content="Maadi">
<meta itemprop="addressRegion" content="Cairo">
<meta itemprop="addressCountry" content="cairo">
</head><body><h1>Nurse</h1></body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Maadi, Cairo", ext.Location)
	assert.Equal(t, "page-metadata", ext.Sources[FieldLocation])
}

func TestKeywordMatcher(t *testing.T) {
	t.Parallel()

	def := newKeywordMatcher(nil, false)
	assert.True(t, def.Match("Fully REMOTE"))
	assert.True(t, def.Match("Work From Home"))
	assert.False(t, def.Match("Cairo"))

	strict := newKeywordMatcher([]string{"Remote", " "}, true)
	assert.True(t, strict.Match("Remote, Egypt"))
	assert.False(t, strict.Match("remote, Egypt"))
}

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	in := `<div class="css-1t5f0fr" data-id="7"><style>.x{color:red}</style><!-- tracking --><p style="margin:0">Hello <b>team</b></p><p></p></div>`
	assert.Equal(t, `<div><p>Hello <b>team</b></p></div>`, CleanHTML(in))
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Duties: Code review Mentoring", PlainText("<p>Duties:</p><ul><li>Code review</li><li>Mentoring</li></ul>"))
	assert.Equal(t, "Hello, world.", PlainText("<span>Hello</span> , world ."))
	assert.Empty(t, PlainText("  "))
}

func TestExtractMetadataLocationBeatsLocationMarkup(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title>
<meta itemprop="addressLocality" content="Alexandria">
<meta itemprop="addressCountry" content="Egypt">
</head><body><h1>Pharmacist</h1>
<span data-qa="job-location">Cairo, Egypt</span>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Alexandria, Egypt", ext.Location)
	assert.Equal(t, "page-metadata", ext.Sources[FieldLocation])
}

func TestExtractLocationMarkup(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title></head><body><h1>Pharmacist</h1>
<span data-qa="job-location">Heliopolis, Cairo</span>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Heliopolis, Cairo", ext.Location)
	assert.Equal(t, "location-selector", ext.Sources[FieldLocation])
}

func TestExtractLocationFromCompanyDashSuffix(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title></head><body>
<h1>Welder</h1>
<div><a href="/jobs/careers/Delta-Works">Delta Works -</a> <span>Alexandria</span></div>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Alexandria", ext.Location)
	assert.Equal(t, "company-dash-suffix", ext.Sources[FieldLocation])
}

func TestExtractJobTypeFromLinks(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title></head><body>
<h1>Sales Representative</h1>
<a href="/a/Full-Time-Jobs-in-Egypt">Full Time</a>
<a href="/a/Work-From-Home-Jobs-in-Egypt">Work From Home</a>
<a href="/a/Full-Time-Jobs-in-Egypt?page=2">Full Time</a>
<a href="/jobs/p/abc-Full-Time-Jobs-Cairo">Another posting</a>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "Full Time / Work From Home", ext.JobType)
	assert.Equal(t, "job-type-links", ext.Sources[FieldJobType])
	assert.Empty(t, ext.Categories)
}

func TestExtractLogoFromCompanyLink(t *testing.T) {
	t.Parallel()

	page := newPage(t, `<html><head><title>Jobs</title></head><body>
<h1>Driver</h1>
<a href="/jobs/careers/Delta-Works"><img src="/static/placeholder.png" data-src="/logos/delta.png?v=2"></a>
</body></html>`)
	ext := New(Config{}).Extract(page)

	assert.Equal(t, "https://wuzzuf.net/logos/delta.png", ext.CompanyLogoURL)
	assert.Equal(t, "company-link-image", ext.Sources[FieldLogo])
}
