package models

// Designation is the job designation of an employee.
type Designation string

const (
	DesignationHR      Designation = "HR"
	DesignationManager Designation = "Manager"
	DesignationSales   Designation = "Sales"
)

// AllDesignations lists designations in form order.
func AllDesignations() []Designation {
	return []Designation{DesignationHR, DesignationManager, DesignationSales}
}

func (d Designation) IsValid() bool {
	switch d {
	case DesignationHR, DesignationManager, DesignationSales:
		return true
	}
	return false
}

// Gender of an employee.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// AllGenders lists genders in form order.
func AllGenders() []Gender {
	return []Gender{GenderMale, GenderFemale}
}

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Course is a qualification an employee holds.
type Course string

const (
	CourseMCA Course = "MCA"
	CourseBCA Course = "BCA"
	CourseBSC Course = "BSC"
)

// AllCourses lists courses in form order.
func AllCourses() []Course {
	return []Course{CourseMCA, CourseBCA, CourseBSC}
}

func (c Course) IsValid() bool {
	switch c {
	case CourseMCA, CourseBCA, CourseBSC:
		return true
	}
	return false
}
