package main

import "podium/internal/models"

var defaultQuestions = []models.Question{
	{Text: "Explain valid parentheses problem.", Role: "SDE", Category: "Data Structures & Algorithms", Difficulty: models.DifficultyEasy},
	{Text: "Design a URL shortener.", Role: "SDE", Category: "System Design", Difficulty: models.DifficultyMedium},
	{Text: "What is the difference between a process and a thread?", Role: "SDE", Category: "Operating Systems", Difficulty: models.DifficultyMedium},

	{Text: "Explain the concept of Virtual DOM in React.", Role: "Frontend Developer", Category: "React", Difficulty: models.DifficultyMedium},
	{Text: "What are the differences between var, let, and const?", Role: "Frontend Developer", Category: "JavaScript", Difficulty: models.DifficultyEasy},
	{Text: "How does the event loop work in JavaScript?", Role: "Frontend Developer", Category: "JavaScript", Difficulty: models.DifficultyHard},
	{Text: "What is semantic HTML?", Role: "Frontend Developer", Category: "HTML/CSS", Difficulty: models.DifficultyEasy},

	{Text: "Explain the difference between SQL and NoSQL databases.", Role: "Backend Developer", Category: "Databases", Difficulty: models.DifficultyMedium},
	{Text: "What is RESTful API design?", Role: "Backend Developer", Category: "APIs", Difficulty: models.DifficultyMedium},
	{Text: "Describe the CAP theorem.", Role: "Backend Developer", Category: "System Design", Difficulty: models.DifficultyHard},

	{Text: "What is Docker and how does it work?", Role: "Cloud Engineer", Category: "DevOps", Difficulty: models.DifficultyMedium},
	{Text: "Explain the concept of Serverless computing.", Role: "Cloud Engineer", Category: "AWS", Difficulty: models.DifficultyMedium},

	// Behavioral questions are repeated per role so role filters still find them.
	{Text: "Tell me about a time you failed.", Role: "SDE", Category: "Behavioral", Difficulty: models.DifficultyEasy},
	{Text: "Tell me about a time you failed.", Role: "Frontend Developer", Category: "Behavioral", Difficulty: models.DifficultyEasy},
	{Text: "Tell me about a time you failed.", Role: "Backend Developer", Category: "Behavioral", Difficulty: models.DifficultyEasy},
}
