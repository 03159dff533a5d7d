package demo

import "time"

// Demo accounts available out of the box. Both use the same password so the
// portal can be tried from two terminals.
const (
	TeacherEmail = "teacher@example.com"
	StudentEmail = "student@example.com"
	Password     = "password123"
)

type seedAssignment struct {
	title       string
	description string
	dueIn       time.Duration
}

var seedAssignments = []seedAssignment{
	{
		title: "Introduction to JavaScript",
		description: "Write a comprehensive essay about JavaScript fundamentals, covering " +
			"variables, functions, and basic DOM manipulation. Include code examples and " +
			"explain the concepts clearly.",
		dueIn: 7 * 24 * time.Hour,
	},
	{
		title: "React Component Architecture",
		description: "Design and implement a React component hierarchy for a todo " +
			"application. Explain your design choices and demonstrate proper state management.",
		dueIn: 14 * 24 * time.Hour,
	},
	{
		title: "Database Design Principles",
		description: "Create an ER diagram for a library management system and explain " +
			"normalization concepts. Include at least 5 entities with proper relationships.",
		dueIn: 10 * 24 * time.Hour,
	},
}
