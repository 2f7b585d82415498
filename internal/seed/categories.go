package seed

import "github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"

type categorySeed struct {
	name          string
	description   string
	icon          string
	color         string
	subcategories []string
}

var categorySeeds = []categorySeed{
	{
		name:        "Project & Development",
		description: "Suggestions related to project management, development processes, and technical improvements",
		icon:        "code",
		color:       "primary",
		subcategories: []string{
			"Code Quality & Standards",
			"Development Tools & Infrastructure",
			"Project Planning & Estimation",
			"Testing & Quality Assurance",
			"Deployment & DevOps",
			"Documentation & Knowledge Sharing",
			"Performance & Optimization",
			"Security & Compliance",
		},
	},
	{
		name:        "Management & Leadership",
		description: "Suggestions for improving management practices, leadership skills, and organizational structure",
		icon:        "users",
		color:       "success",
		subcategories: []string{
			"Team Management",
			"Communication & Transparency",
			"Decision Making Process",
			"Goal Setting & KPIs",
			"Conflict Resolution",
			"Mentoring & Coaching",
			"Strategic Planning",
			"Change Management",
		},
	},
	{
		name:        "Team & Collaboration",
		description: "Suggestions to enhance team dynamics, collaboration tools, and interpersonal relationships",
		icon:        "handshake",
		color:       "warning",
		subcategories: []string{
			"Team Building Activities",
			"Collaboration Tools & Platforms",
			"Cross-functional Communication",
			"Remote Work & Virtual Teams",
			"Meeting Efficiency",
			"Knowledge Sharing",
			"Team Recognition & Rewards",
			"Conflict Prevention",
		},
	},
	{
		name:        "Workplace Environment",
		description: "Suggestions for improving physical workspace, office culture, and work-life balance",
		icon:        "home",
		color:       "ghost",
		subcategories: []string{
			"Office Layout & Design",
			"Ergonomics & Health",
			"Noise & Distraction Management",
			"Lighting & Temperature",
			"Break Areas & Amenities",
			"Work-Life Balance",
			"Flexible Work Arrangements",
			"Wellness Programs",
		},
	},
	{
		name:        "Career & Learning",
		description: "Suggestions for professional development, training programs, and career growth opportunities",
		icon:        "graduation-cap",
		color:       "primary",
		subcategories: []string{
			"Training & Workshops",
			"Skill Development Programs",
			"Certification Support",
			"Conference & Event Attendance",
			"Mentorship Programs",
			"Career Path Planning",
			"Learning Resources",
			"Performance Feedback",
		},
	},
	{
		name:        "HR & Policy",
		description: "Suggestions for improving HR processes, company policies, and employee benefits",
		icon:        "user-check",
		color:       "success",
		subcategories: []string{
			"Recruitment & Onboarding",
			"Performance Management",
			"Compensation & Benefits",
			"Leave & Time-off Policies",
			"Employee Recognition",
			"Diversity & Inclusion",
			"Health & Safety",
			"Grievance Procedures",
		},
	},
	{
		name:        "Innovation & New Ideas",
		description: "Suggestions for new products, services, processes, and innovative approaches",
		icon:        "lightbulb",
		color:       "warning",
		subcategories: []string{
			"Product Innovation",
			"Process Improvements",
			"Technology Adoption",
			"Market Opportunities",
			"Customer Experience",
			"Sustainability Initiatives",
			"Creative Solutions",
			"Future Trends",
		},
	},
}

// DefaultCategories returns the built-in taxonomy, numbered in display order.
func DefaultCategories() []*domain.Category {
	categories := make([]*domain.Category, 0, len(categorySeeds))
	for i, cs := range categorySeeds {
		c := &domain.Category{
			Name:          cs.name,
			Description:   cs.description,
			Icon:          cs.icon,
			Color:         cs.color,
			IsActive:      true,
			Order:         int32(i + 1),
			Subcategories: make([]*domain.Subcategory, 0, len(cs.subcategories)),
		}
		for j, name := range cs.subcategories {
			c.Subcategories = append(c.Subcategories, &domain.Subcategory{
				Name:     name,
				IsActive: true,
				Order:    int32(j + 1),
			})
		}
		categories = append(categories, c)
	}
	return categories
}
