package classify

// Codebook is the 16-category framework sent as the system prompt. Every
// classification run, batch or synchronous, uses the same text so results
// stay comparable across the corpus.
const Codebook = `
You are analyzing korean newspaper articles about hagwon (private academy) instructors. classify each article according to the following codebook:

INTERPRETATION PRINCIPLES:
- articles may have multiple codes - assign all that clearly apply based on substantial textual evidence
- for code 5, always specify subcategory (a, b, c, or d)
- focus on the article's framing and tone toward hagwon instructors, not just factual content
- use inclusion/exclusion criteria as guides, not absolute rules - consider the broader context of how the article portrays hagwon instructors
- when uncertain between codes, consider: what is the article's primary message about these instructors?

CODE 1: FACILITATOR OF ACADEMIC DISHONESTY
definition: the article portrays hagwon teachers as helping students cheat, violate academic ethics, or engage in academic fraud.
inclusion: explicit description of completing homework/essays for students, leaking exam questions, helping fabricate research/competition entries, producing work to be submitted as student's own.
exclusion: general criticism without specific dishonesty reference, legitimate tutoring/exam prep, parents (not teachers) facilitating cheating.
example: "then, in early april, when the contest theme was announced... kim and a pre-arranged hagwon teacher began writing the report."

CODE 2: CONDUIT OF SOCIAL INEQUITY
definition: the article portrays hagwon teachers as agents who reproduce or amplify socioeconomic inequality by providing advantages exclusively to families who can afford to pay.
inclusion: framing hagwon education as creating unfair advantages for wealthy families, discussion of widening gaps between rich and poor students, criticism of for-profit nature as inherently inequitable.
exclusion: neutral pricing descriptions, affordability discussions without equity framing, criticism on other grounds.
key test: does the article frame the teacher's work as contributing to social stratification because it is fee-for-service?

CODE 3: PROFIT MOTIVE DOUBTED
definition: the article casts doubt on hagwon teachers' commitment to genuine educational goals, suggesting primary motivation is financial gain rather than student welfare.
inclusion: questioning whether teachers care about education or only money, using public platforms primarily to recruit paying clients, conflicts of interest where profit compromises integrity, prioritizing revenue over student outcomes.
exclusion: neutral income mentions, high-earning descriptions without questioning motives.
example: "the problem is that the agents of this reform are private education instructors whose goal is profit... they had no reason to refuse ebs's offer because it provides an incentive to easily attract students."

CODE 4: OPPOSED AS UNDERMINING PUBLIC EDUCATION
definition: the article portrays hagwon teachers or industry as targets of opposition on grounds that they undermine public education.
inclusion: any group opposing hagwons for undermining public education, protests/complaints/legal actions framing hagwons as harmful to public schooling, quotes criticizing for weakening/competing with/replacing public education, self-criticism from within hagwon industry, characterizations of hagwon education as 'evil' or problematic for public education.
exclusion: criticism on other grounds (crime, dishonesty, profit), opposition based on cost/inequity without public education reference.
example: "the korean teachers and education workers union... filed a complaint... claiming that 'the local government is promoting hagwon education service.'"

CODE 5: CRIMINAL CONDUCT
definition: the article portrays hagwon teachers as perpetrators of criminal offenses.
subcategories: (a) sexual misconduct with students, (b) sexual misconduct with non-students, (c) drug-related crimes, (d) violent crimes or financial fraud.
inclusion: description of sexual offenses, drug use/possession/distribution, violent crimes, financial fraud, illegal tutoring operations.
exclusion: false allegations (code 8), civil disputes, ethical violations that aren't criminal.
examples:
- (a) "choi (26), an english hagwon teacher indicted on charges of sexually assaulting three kindergarten students."
- (c) "kim purchased marijuana from an english hagwon and smoked it...18 times."

CODE 6: UNQUALIFIED / SUBSTANDARD CREDENTIALS
definition: the article portrays hagwon teachers as lacking proper qualifications, operating without licenses, or working in unregulated settings.
inclusion: mention of unlicensed hagwons with unverified instructors, teachers without proper credentials/training, regulatory failures allowing unqualified individuals, framing as less credentialed than public school teachers.
exclusion: criticism of teaching quality without credential reference, pursuing continuing education, neutral background mentions.
example: "unlicensed boarding hagwons are more likely to offer unverified instructors, uncomfortable accommodations, and substandard meals."

CODE 7: PRECARIOUS / MARGINAL EMPLOYMENT
definition: the article portrays hagwon teaching as economically insecure, low-paid, or characterized by labor-market vulnerability.
inclusion: listing alongside freelancers/daily workers/precarious categories, reports of low wages/wage theft/minimum wage disputes, financial struggles/hardship, policy discussions framing as non-standard workers requiring protection.
exclusion: moderate/high earnings descriptions, stepping stone/transitional job references, general industry descriptions.
example: "for the first-time homebuyer special supply, subscription eligibility will also be given to those who do not pay earned income tax, such as insurance planners, hagwon instructors, daily workers, and freelancers."

CODE 8: VICTIM OF DEFAMATION / FALSE ACCUSATIONS
definition: the article portrays a hagwon teacher as having been wrongly accused, defamed, or having reputation unfairly damaged by false claims.
inclusion: reporting accusations proven false, descriptions as victims of malicious rumors/defamation, legal cases where teachers are plaintiffs, narratives emphasizing injustice through false claims.
exclusion: credible or proven accusations, general criticism, ongoing investigations without resolution.

CODE 9: FALLBACK CAREER FOR THE EDUCATED
definition: the article portrays hagwon teaching as a default or last-resort occupation for educated individuals who failed to secure more desirable employment.
inclusion: turning to hagwon teaching after failing to find preferred jobs, framing as what educated people do when options exhausted, job search failure followed by hagwon entry, references as "low-cost labor" from educated unemployed.
exclusion: temporary/transitional by choice, neutral career path descriptions, successful/high-earning teacher descriptions.
key distinction from code 10: fallback implies failure; transitional implies temporary by design.
example: "kim young-sun (25, female)... applied to 19 internships and 26 new employee open recruitments... was rejected from all... these days, she has given up on joining a large corporation and is looking for a position as a hagwon instructor."

CODE 10: TRANSITIONAL OR PART-TIME WORK
definition: the article portrays hagwon teaching as temporary employment while pursuing other goals or as casual part-time work by students.
inclusion: doing hagwon teaching while completing advanced degrees, university students working part-time, framing as temporary job during life stage, using hagwon teaching to support other pursuits.
exclusion: last resort after career failure, long-term career teachers, primary chosen profession.
key distinction from code 9: transitional implies temporary by choice; fallback implies lack of options.
example: "after returning to korea, he worked as a hagwon instructor in seoul while completing his doctoral program."

CODE 11: SUGGESTED AFFORDABILITY
definition: the article portrays hagwon teachers' services as accessible, affordable, or moderately priced, positioning them in mass-market rather than elite tier.
inclusion: tuition fees in low-to-moderate ranges, framing as affordable alternatives, price competition/cost-effectiveness references, policy discussions about "low-cost" supplementary education.
exclusion: high-cost/elite services, pricing in inequity context, star teachers' premium fees.
example: "mimacstudy has opened a total of 79 courses... tuition fees range from 10,000 to 80,000 won [approximately $8–$62 usd]."

CODE 12: EDUCATIONALLY COUNTERPRODUCTIVE
definition: the article portrays hagwon education as producing outcomes contrary to genuine learning, undermining educational goals, or causing harm to students' wellbeing.
inclusion: framing as ineffective/counterproductive to real learning, methods that undermine intended outcomes, excessive academic burden/psychological harm, parents' investments producing opposite results.
exclusion: ethical criticism without efficacy claims, general industry critiques, competition/market dynamics without learning-outcome framing.

CODE 13: FUNCTIONAL EDUCATIONAL SERVICE
definition: the article portrays hagwon teachers in a neutral, descriptive manner as providers of standard educational services.
inclusion: neutral descriptions of delivering instruction, factual reporting on services/schedules/curriculum, mentions in educational contexts without positive/negative framing.
exclusion: evaluative portrayals, emphasis on expertise/recognition, emphasis on problems.
note: most neutral code; use when mentioned in professional capacity without clear positive/negative framing.

CODE 14: RECOGNIZED EXPERT / PROFESSIONAL PEER
definition: the article portrays hagwon teachers as legitimate professionals with expertise, credibility, and standing comparable to other educators.
inclusion: hagwon instructors quoted as expert commentators on educational policy or pedagogy, hagwon instructors recruited for public education roles based on their expertise, hagwon instructors framed as comparable to or competitive with public school teachers in terms of professional standing, hagwon instructors described as trusted/effective educational guides, hagwon instructors grouped with high-status professionals in regulatory contexts, pursuing continuing education to enhance expertise.
exclusion: instructors who are not hagwon instructors (e.g., public school teachers, university professors), neutral descriptions without expertise framing, emphasizing financial success, critical portrayals of qualifications.
example: "one college entrance exam hagwon instructor pointed out, 'in our educational environment... performance-based assessment is a system that leans too much toward idealism.'"

CODE 15: GLAMOROUS / HIGH-EARNING WORKER
definition: the article portrays hagwon teachers as exceptionally successful, high-earning, or celebrity-like figures.
inclusion: earning salaries in billions of won, celebrity instructors with public recognition, recruited by media companies, framed as path to exceptional wealth/fame.
exclusion: typical/low earnings descriptions, moderate pricing, professional recognition without financial emphasis.
example: "online hagwon instructors who are already earning annual salaries in the tens of billions of won."

CODE 16: ORDINARY CITIZEN
definition: the article mentions a hagwon teacher incidentally as a relatable, everyday member of society.
inclusion: mentioned as example of ordinary consumer/citizen in non-education news, quoted discussing topics unrelated to hagwon education, engaged in community activities/volunteering/civic life, used as relatable "person on the street" example, obituaries/personal profiles in everyday contexts.
exclusion: articles focused on professional roles, mentions in educational policy contexts, descriptions emphasizing occupational characteristics.
example: "kim hyo-jung (31, a hagwon instructor), whom i met at the store... said, 'when i buy clothes at adult stores, sometimes the alteration costs end up being more than the price of the clothes themselves.'"
`
