package main

import (
	"encoding/json"
	"fmt"
)

// highlightStyleID identifies the injected highlight stylesheet
const highlightStyleID = "mylo-extension-style"

// script to inject the highlight stylesheet once per document, %[1]s is the
// style element ID and %[2]s the class name
const ensureStyleScript = `(() => {
	if (document.getElementById(%[1]s)) return;

	const style = document.createElement("style");
	style.id = %[1]s;
	style.textContent = "." + %[2]s + " {" +
		" outline: 6px solid rgba(255, 165, 0, 0.6);" +
		" transition: outline 160ms ease-in-out; }";
	(document.head || document.documentElement).appendChild(style);
})();`

// script to toggle a class on the document root, returns whether the class
// is now present. %[2]s is empty or a ", true"/", false" force argument
const toggleClassScript = `(() => {
	return document.documentElement.classList.toggle(%[1]s%[2]s);
})();`

// script to navigate the page, returns the URL it was sent to
const setLocationScript = `(() => {
	window.location.href = %[1]s;
	return %[1]s;
})();`

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func ensureStyleJS(className string) string {
	return fmt.Sprintf(ensureStyleScript, jsString(highlightStyleID), jsString(className))
}

func toggleClassJS(className string, force *bool) string {
	forceArg := ""
	if force != nil {
		forceArg = fmt.Sprintf(", %t", *force)
	}

	return fmt.Sprintf(toggleClassScript, jsString(className), forceArg)
}

func setLocationJS(newURL string) string {
	return fmt.Sprintf(setLocationScript, jsString(newURL))
}
