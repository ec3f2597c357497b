package fakeapp

const pageTemplates = `
{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.}}</title>
<style>
body { font-family: system-ui, sans-serif; background: #f7fafc; margin: 0; }
main { max-width: 420px; margin: 64px auto; background: #fff; padding: 32px; border-radius: 8px; }
.chakra-form-control { margin-bottom: 16px; }
.chakra-input { width: 100%; padding: 8px; box-sizing: border-box; }
.chakra-input[aria-invalid="true"] { border-color: #e53e3e; }
.chakra-input__group { display: flex; gap: 8px; }
.chakra-form__error-message { color: #e53e3e; margin-bottom: 16px; }
</style>
</head>
<body>
{{end}}

{{define "login"}}{{template "head" "Sign in"}}
<main>
<h1>Sign in</h1>
{{if .Error}}<div role="alert" class="chakra-form__error-message">{{.Error}}</div>{{end}}
<form method="post" action="{{.SubmitPath}}" novalidate>
  <div class="chakra-form-control">
    <label for="email">Email</label>
    <input id="email" class="chakra-input" name="email" type="email" autocomplete="username" value="{{.Email}}"{{if .EmailError}} aria-invalid="true"{{end}}>
  </div>
  <div class="chakra-form-control">
    <label for="password">Password</label>
    <div class="chakra-input__group">
      <input id="password" class="chakra-input" name="password" type="password" autocomplete="current-password">
      <button type="button" id="toggle-password" aria-label="Show password">Show</button>
    </div>
  </div>
  <button type="submit" class="chakra-button">Sign in</button>
</form>
</main>
<script>
(function () {
  var toggle = document.getElementById('toggle-password');
  var input = document.getElementById('password');
  toggle.addEventListener('click', function () {
    var reveal = input.type === 'password';
    input.type = reveal ? 'text' : 'password';
    toggle.setAttribute('aria-label', reveal ? 'Hide password' : 'Show password');
    toggle.textContent = reveal ? 'Hide' : 'Show';
  });
})();
</script>
</body>
</html>
{{end}}

{{define "dashboard"}}{{template "head" "Dashboard"}}
<main>
<p>Signed in as <strong id="account-email">{{.Email}}</strong></p>
<article>{{.Welcome}}</article>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
</main>
</body>
</html>
{{end}}
`
