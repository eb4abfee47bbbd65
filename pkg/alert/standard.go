package alert

import (
	"fmt"
	"time"
)

func UsernameNotFound(username, rawError string) Alert {
	return Alert{
		Heading: fmt.Sprintf("%s niet gevonden", username),
		Message: fmt.Sprintf("Probeer het nog een keer. %s", rawError),
		Variant: VariantWarning,
		Timeout: 10 * time.Second,
	}
}

func Timeout() Alert {
	return Alert{
		Heading: "Geen verbinding",
		Message: "De server reageert niet. Probeer het over een moment opnieuw.",
		Variant: VariantWarning,
		Timeout: 10 * time.Second,
	}
}

func UnknownError(rawError string) Alert {
	return Alert{
		Heading: "Er is iets misgegaan",
		Message: fmt.Sprintf("Onbekende fout: %s", rawError),
		Variant: VariantDanger,
		Timeout: 30 * time.Second,
	}
}

func ValidationError(rawError string) Alert {
	return Alert{
		Heading: "Aankoop geweigerd",
		Message: fmt.Sprintf("De server heeft de aankoop afgewezen. %s", rawError),
		Variant: VariantDanger,
		Timeout: 30 * time.Second,
	}
}

func SaleSuccessful(name string, quantity int, total fmt.Stringer) Alert {
	return Alert{
		Heading: "Gestreept!",
		Message: fmt.Sprintf("%d item(s) voor %s gestreept door %s.", quantity, total, name),
		Variant: VariantSuccess,
		Timeout: 5 * time.Second,
	}
}

func PostWithoutMember() Alert {
	return Alert{
		Heading: "Post attempted without logged in user",
		Message: "Please report this.",
		Variant: VariantDanger,
		Timeout: 5 * time.Minute,
	}
}

func AutoLogout(name string) Alert {
	return Alert{
		Message: fmt.Sprintf("%s is automatisch uitgelogd.", name),
		Variant: VariantInfo,
		Timeout: 5 * time.Second,
	}
}

func CardNotRegistered(uid string) Alert {
	return Alert{
		Heading: "Onbekende kaart",
		Message: fmt.Sprintf("Kaart %s is niet gekoppeld aan een gebruiker.", uid),
		Variant: VariantWarning,
		Timeout: 10 * time.Second,
	}
}

func LimitExceeded() Alert {
	return Alert{
		Heading: "Te veel aankopen",
		Message: "Je hebt het maximale aantal aankopen per uur bereikt.",
		Variant: VariantWarning,
		Timeout: 10 * time.Second,
	}
}

func EmptyCart() Alert {
	return Alert{
		Message: "Het winkelmandje is leeg.",
		Variant: VariantWarning,
		Timeout: 5 * time.Second,
	}
}
