package zkregex

import "fmt"

func builtinIdxes(input, name string) ([]Span, error) {
	cfg, ok := BuiltinConfig(name)
	if !ok {
		return nil, fmt.Errorf("Failed to match regex: unknown built-in config %q", name)
	}
	return ExtractSubstrIdxes(input, cfg, false)
}

func firstSubstr(input, name string) (string, error) {
	idxes, err := builtinIdxes(input, name)
	if err != nil {
		return "", err
	}
	return input[idxes[0].Start:idxes[0].End], nil
}

// ExtractFromAllIdxes locates the full value of the From header.
func ExtractFromAllIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "from_all")
}

// ExtractFromAddrIdxes locates the address inside the From header, with or
// without a display name.
func ExtractFromAddrIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "from_addr")
}

// ExtractToAllIdxes locates the full value of the To header.
func ExtractToAllIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "to_all")
}

// ExtractToAddrIdxes locates the address inside the To header.
func ExtractToAddrIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "to_addr")
}

// ExtractEmailAddrIdxes locates a bare email address.
func ExtractEmailAddrIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "email_addr")
}

// ExtractEmailAddrWithNameIdxes locates an address in "Name <addr>" form.
func ExtractEmailAddrWithNameIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "email_addr_with_name")
}

// ExtractEmailDomainIdxes locates the domain part of an email address.
func ExtractEmailDomainIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "email_domain")
}

// ExtractSubjectAllIdxes locates the full value of the Subject header.
func ExtractSubjectAllIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "subject_all")
}

// ExtractTimestampIdxes locates the t= timestamp of the DKIM-Signature
// header.
func ExtractTimestampIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "timestamp")
}

// ExtractBodyHashIdxes locates the bh= value of the DKIM-Signature header.
func ExtractBodyHashIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "body_hash")
}

// ExtractMessageIDIdxes locates the Message-ID header value.
func ExtractMessageIDIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "message_id")
}

// ExtractInvitationCodeIdxes locates a hex invitation code after the
// "Code " marker.
func ExtractInvitationCodeIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "invitation_code")
}

// ExtractInvitationCodeWithPrefixIdxes locates the invitation code together
// with its "Code " marker.
func ExtractInvitationCodeWithPrefixIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "invitation_code_with_prefix")
}

// ExtractCommandIdxes locates the command text inside the quoted-printable
// command div.
func ExtractCommandIdxes(input string) ([]Span, error) {
	return builtinIdxes(input, "command")
}

// ExtractCommand returns the command text itself.
func ExtractCommand(input string) (string, error) {
	return firstSubstr(input, "command")
}

// ExtractInvitationCode returns the invitation code itself.
func ExtractInvitationCode(input string) (string, error) {
	return firstSubstr(input, "invitation_code")
}
