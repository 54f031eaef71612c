package directory

import "github.com/skillswap/backend/internal/models"

// DefaultCatalog returns the built-in skill profiles every deployment starts with.
func DefaultCatalog() []models.Profile {
	return []models.Profile{
		{ID: "1", Name: "Riya", Role: models.RoleMentor, Description: "Python developer and AI enthusiast.", Tags: []string{"Python", "AI", "Machine Learning"}},
		{ID: "2", Name: "Karan", Role: models.RoleLearner, Description: "Aspiring frontend developer.", Tags: []string{"JavaScript", "React", "CSS"}},
		{ID: "3", Name: "Neha", Role: models.RoleMentor, Description: "Graphic designer and illustrator.", Tags: []string{"Photoshop", "Illustrator", "Design"}},
		{ID: "4", Name: "Sahil", Role: models.RoleLearner, Description: "Interested in backend development.", Tags: []string{"Node.js", "Express", "Databases"}},
		{ID: "5", Name: "Meera", Role: models.RoleMentor, Description: "Fullstack developer and mentor.", Tags: []string{"Python", "Django", "React"}},
		{ID: "6", Name: "Amit", Role: models.RoleLearner, Description: "Learning DevOps and cloud.", Tags: []string{"AWS", "Docker", "Kubernetes"}},
	}
}
