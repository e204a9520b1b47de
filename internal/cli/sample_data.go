package cli

import "course-trivia-service/internal/domain"

// sampleBank is served when no Postgres URL is configured.
func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{Levels: []domain.Level{
		{
			Name: "Easy",
			Questions: []domain.Question{
				{
					Text:          "What is the main document you send when applying for a job?",
					Options:       []string{"ID card", "Curriculum Vitae (CV)", "Recommendation letter", "Previous contract"},
					CorrectOption: "Curriculum Vitae (CV)",
				},
				{
					Text:          "What is the meeting called where an employer gets to know you in person or online?",
					Options:       []string{"Final exam", "Team meeting", "Job interview", "Training"},
					CorrectOption: "Job interview",
				},
				{
					Text:          "How should you usually dress for a corporate job interview?",
					Options:       []string{"Sportswear", "Pajamas", "Formal or business casual", "Beachwear"},
					CorrectOption: "Formal or business casual",
				},
			},
		},
		{
			Name: "Intermediate",
			Questions: []domain.Question{
				{
					Text:          "Which professional social network is most popular for job hunting and networking?",
					Options:       []string{"Facebook", "TikTok", "LinkedIn", "Instagram"},
					CorrectOption: "LinkedIn",
				},
				{
					Text:          "Which personal information is usually NOT needed on your CV?",
					Options:       []string{"Work experience", "Education", "Marital status or religion", "Contact details"},
					CorrectOption: "Marital status or religion",
				},
				{
					Text:          "The STAR method (Situation, Task, Action, Result) is used to answer which kind of questions?",
					Options:       []string{"Behavioral", "Technical", "Salary", "General knowledge"},
					CorrectOption: "Behavioral",
				},
			},
		},
		{
			Name: "Advanced",
			Questions: []domain.Question{
				{
					Text:          "Assertive communication and time management are examples of...",
					Options:       []string{"Hard skills", "Soft skills", "Technical skills", "Legal requirements"},
					CorrectOption: "Soft skills",
				},
				{
					Text:          "What does the term 'gross salary' refer to?",
					Options:       []string{"Salary after taxes", "Total salary before taxes and deductions", "Salary plus bonuses", "Minimum wage"},
					CorrectOption: "Total salary before taxes and deductions",
				},
				{
					Text:          "What is the 'hidden job market'?",
					Options:       []string{"Illegal jobs", "Jobs only for foreigners", "Openings that are never posted and get filled through contacts", "Part-time jobs"},
					CorrectOption: "Openings that are never posted and get filled through contacts",
				},
			},
		},
	}}
}

// sampleCatalog is served when no Postgres URL is configured. The first
// course is the default gift.
func sampleCatalog() domain.Catalog {
	return domain.Catalog{Courses: []domain.Course{
		{
			ID:           "1",
			Title:        "Leadership and Team Management",
			Description:  "Lead, motivate and manage teams effectively.",
			Instructor:   "Elena Torres",
			Cost:         4999,
			GiftEligible: true,
			Tasks: []domain.Task{
				{ID: "1-1", Title: "Case study: leadership styles"},
				{ID: "1-2", Title: "Practice: feedback session"},
				{ID: "1-3", Title: "Team development plan"},
				{ID: "1-4", Title: "Conflict resolution simulation"},
				{ID: "1-5", Title: "Final project: leadership strategy"},
			},
		},
		{
			ID:           "2",
			Title:        "Advanced Digital Marketing",
			Description:  "SEO, SEM, content marketing and web analytics.",
			Instructor:   "Carlos Vega",
			Cost:         5999,
			GiftEligible: true,
			Tasks: []domain.Task{
				{ID: "2-1", Title: "SEO audit of a website"},
				{ID: "2-2", Title: "Build a Google Ads campaign"},
				{ID: "2-3", Title: "Content calendar"},
				{ID: "2-4", Title: "Social campaign metrics analysis"},
				{ID: "2-5", Title: "Final project: integrated digital marketing plan"},
			},
		},
		{
			ID:          "3",
			Title:       "Full Stack Web Development",
			Description: "Build complete web applications from frontend to deployment.",
			Instructor:  "Ana Mendoza",
			Cost:        7999,
			Tasks: []domain.Task{
				{ID: "3-1", Title: "Static landing page"},
				{ID: "3-2", Title: "REST API"},
				{ID: "3-3", Title: "Database integration"},
				{ID: "3-4", Title: "Authentication"},
				{ID: "3-5", Title: "Final project: deployed application"},
			},
		},
	}}
}
