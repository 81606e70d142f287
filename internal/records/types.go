package records

// Wire types of the clinical-records API. Timestamps stay as the upstream
// strings; the console displays them, it does not interpret them.

type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PatientID string `json:"patientId"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	DeletedAt string `json:"deletedAt,omitempty"`
}

type CreatePatient struct {
	Name      string `json:"name"`
	PatientID string `json:"patientId,omitempty"`
}

type UpdatePatient struct {
	Name      *string `json:"name,omitempty"`
	PatientID *string `json:"patientId,omitempty"`
}

type Treatment struct {
	ID               string   `json:"id"`
	Date             string   `json:"date"`
	TreatmentOptions []string `json:"treatmentOptions"`
	Medications      []string `json:"medications"`
	CostOfTreatment  float64  `json:"costOfTreatment"`
	PatientID        string   `json:"patientId"`
	Patient          *Patient `json:"patient,omitempty"`
	UserID           string   `json:"userId"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

type CreateTreatment struct {
	PatientID             string   `json:"patientId"`
	DateOfTreatment       string   `json:"dateOfTreatment"`
	TreatmentDescription  []string `json:"treatmentDescription"`
	MedicationsPrescribed []string `json:"medicationsPrescribed"`
	CostOfTreatment       float64  `json:"costOfTreatment"`
}

type TreatmentOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Medication struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreatePrescription struct {
	PatientID    string   `json:"patientId"`
	Medications  []string `json:"medications"`
	Instructions string   `json:"instructions,omitempty"`
}

type Prescription struct {
	ID           string   `json:"id"`
	PatientID    string   `json:"patientId"`
	Medications  []string `json:"medications"`
	Instructions string   `json:"instructions,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

type User struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

type CreateUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateUser struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}
