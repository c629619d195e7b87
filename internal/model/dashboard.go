package model

type DashboardStats struct {
	TotalAppointments    int                   `json:"totalAppointments"`
	TotalPatients        int                   `json:"totalPatients"`
	TotalLabResults      int                   `json:"totalLabResults"`
	UpcomingAppointments []UpcomingAppointment `json:"upcomingAppointments"`
}

type UpcomingAppointment struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	PatientName string `json:"patientName"`
	TestType    string `json:"testType"`
}
