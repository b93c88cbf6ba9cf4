package store

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Record is a raw backend item.
type Record map[string]types.AttributeValue

// PK represents a primary key: partition key plus optional sort key.
type PK map[string]types.AttributeValue

// Attribute names.
const (
	AttrCustomerID      = "customerId"
	AttrID              = "id"
	AttrGroomerID       = "groomerId"
	AttrVersion         = "version"
	AttrLatestVersion   = "latestVersion"
	AttrScheduleID      = "scheduleId"
	AttrAppointmentTime = "appointmentTime"
	AttrPetID           = "petId"
)

// Parent is a customer. One parent per phone number is assumed.
type Parent struct {
	// CustomerID is derived from PhoneNumber on save.
	CustomerID string `dynamodbav:"customerId"`

	// ID is derived from FirstName and LastName on save.
	ID string `dynamodbav:"id"`

	FirstName   string            `dynamodbav:"firstName"`
	LastName    string            `dynamodbav:"lastName"`
	Address     map[string]string `dynamodbav:"address"`
	PhoneNumber string            `dynamodbav:"phoneNumber"`
}

// Pet belongs to the parent that shares its CustomerID.
type Pet struct {
	// CustomerID is derived from PhoneNumber on save.
	CustomerID string `dynamodbav:"customerId"`

	// ID is derived from Name on save.
	ID string `dynamodbav:"id"`

	PhoneNumber string `dynamodbav:"phoneNumber"`
	Name        string `dynamodbav:"name"`
	Type        string `dynamodbav:"type"`
	Notes       string `dynamodbav:"notes,omitempty"`
}

// WorkSchedule is one weekly working block. Start and End are HHMM clock values.
type WorkSchedule struct {
	Day   time.Weekday `dynamodbav:"day"`
	Start int          `dynamodbav:"start"`
	End   int          `dynamodbav:"end"`
}

// Groomer is one version of an employee record.
type Groomer struct {
	// GroomerID is derived from EmployeeNumber on save.
	GroomerID string `dynamodbav:"groomerId"`

	// Version is "v0" for the latest pointer and "v1".."vN" for snapshots.
	Version string `dynamodbav:"version"`

	// LatestVersion is set only on the "v0" record.
	LatestVersion *int `dynamodbav:"latestVersion,omitempty"`

	EmployeeNumber  string         `dynamodbav:"employeeNumber"`
	FirstName       string         `dynamodbav:"firstName"`
	LastName        string         `dynamodbav:"lastName"`
	HomePhoneNumber string         `dynamodbav:"homePhoneNumber,omitempty"`
	WorkSchedule    []WorkSchedule `dynamodbav:"workSchedule"`
}

// Schedule is a single appointment.
type Schedule struct {
	// ScheduleID is derived from AppointmentTime on save.
	ScheduleID string

	// AppointmentTime is a wall-clock time; its zone is ignored on save and
	// set to Config.Location on read.
	AppointmentTime time.Time

	GroomerID  string
	CustomerID string
	PetID      string
}

// appointmentLayout sorts lexicographically in chronological order.
const appointmentLayout = "2006-01-02T15:04:05"

// scheduleRecord is the stored shape of a Schedule.
type scheduleRecord struct {
	ScheduleID      string `dynamodbav:"scheduleId"`
	AppointmentTime string `dynamodbav:"appointmentTime"`
	GroomerID       string `dynamodbav:"groomerId"`
	CustomerID      string `dynamodbav:"customerId"`
	PetID           string `dynamodbav:"petId"`
}
