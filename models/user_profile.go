package models

// UserProfile holds the read-only profile fields the matcher scores on.
// Age is 0 when unknown.
type UserProfile struct {
	UserID string `dynamodbav:"userId" json:"userId"`                     // Partition Key
	Age    int    `dynamodbav:"age,omitempty" json:"age,omitempty"`       // Calculated age
	Gender string `dynamodbav:"gender,omitempty" json:"gender,omitempty"` // Free-text gender
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "Users"
