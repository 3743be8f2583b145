package user

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	roleTag  = "role"
	roleText = "must be one of teacher, student or librarian"

	pwdMinLenTag     = "pwd_min_len"
	pwdMinLenText    = "must contain at least 8 characters"
	pwdNoSpaceTag    = "pwd_no_space"
	pwdNoSpaceText   = "must not contain whitespace"
	pwdNotAllNumTag  = "pwd_not_all_num"
	pwdNotAllNumText = "must not be entirely numeric"

	studentOnlyTag  = "student_only"
	studentOnlyText = "only students have a student profile"
)

// RegisterValidators adds the user specific tags and struct validators to v.
func RegisterValidators(v *core.Validator) {
	v.RegisterValidation(roleTag, roleValidation, roleText)
	v.RegisterStructValidation(userStructValidation, NewUser{}, PasswordReset{})
	v.RegisterTranslation(pwdMinLenTag, pwdMinLenText)
	v.RegisterTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	v.RegisterTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	v.RegisterTranslation(studentOnlyTag, studentOnlyText)
}

func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

// userStructValidation does struct level validation on NewUser and PasswordReset structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(usr.Password, sl)
		if usr.Role != RoleStudent {
			if usr.StudentID != "" {
				sl.ReportError(usr.StudentID, "student_id", "StudentID", studentOnlyTag, "")
			}
			if usr.DateOfBirth != "" {
				sl.ReportError(usr.DateOfBirth, "date_of_birth", "DateOfBirth", studentOnlyTag, "")
			}
		}
	case PasswordReset:
		validatePassword(usr.Password, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - not all numeric
func validatePassword(pwd string, sl validator.StructLevel) {
	if pwd == "" {
		return // reported by `required`
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	runes := []rune(pwd)
	if len(runes) < 8 {
		reportErr(pwdMinLenTag)
		return
	}
	var digitCount int
	for _, char := range runes {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(runes) {
		reportErr(pwdNotAllNumTag)
	}
}
